package submissions

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

type fakeStore struct {
	byID   map[uuid.UUID]*models.VideoSubmission
	byURL  map[string]uuid.UUID
	counts map[uuid.UUID]struct{ total, approved int }
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:   make(map[uuid.UUID]*models.VideoSubmission),
		byURL:  make(map[string]uuid.UUID),
		counts: make(map[uuid.UUID]struct{ total, approved int }),
	}
}

func (f *fakeStore) ExistsByURL(_ context.Context, url string) (bool, error) {
	_, ok := f.byURL[url]
	return ok, nil
}

func (f *fakeStore) CreateBatch(_ context.Context, creatorID uuid.UUID, subs []*models.VideoSubmission) error {
	seen := make(map[string]bool)
	for _, s := range subs {
		if _, dup := f.byURL[s.VideoURL]; dup || seen[s.VideoURL] {
			return domain.DuplicateURL(s.VideoURL)
		}
		seen[s.VideoURL] = true
	}
	for _, s := range subs {
		f.byID[s.ID] = s
		f.byURL[s.VideoURL] = s.ID
	}
	c := f.counts[creatorID]
	c.total += len(subs)
	f.counts[creatorID] = c
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.VideoSubmission, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Review(_ context.Context, id, adminID uuid.UUID, status models.SubmissionStatus, feedback string, reviewedAt time.Time) (*models.VideoSubmission, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	if s.Status != models.SubmissionPending {
		return nil, domain.ErrAlreadyReviewed
	}
	s.Status = status
	s.AdminID = &adminID
	s.AdminFeedback = feedback
	s.ReviewedAt = &reviewedAt
	if status == models.SubmissionApproved {
		c := f.counts[s.CreatorID]
		c.approved++
		f.counts[s.CreatorID] = c
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]models.VideoSubmission, error) {
	var out []models.VideoSubmission
	for _, s := range f.byID {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.CreatorID != nil && s.CreatorID != *filter.CreatorID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) Aggregate(_ context.Context, _ *uuid.UUID, _ time.Time) (*Stats, error) {
	return &Stats{}, nil
}

type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func newTestService(store *fakeStore, creator *models.User) *Service {
	users := &fakeUsers{byID: map[uuid.UUID]*models.User{}}
	if creator != nil {
		users.byID[creator.ID] = creator
	}
	s := NewService(store, users, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC) }
	return s
}

func testCreator() *models.User {
	return &models.User{ID: uuid.New(), Username: "dana", Role: models.RoleCreator}
}

func TestSubmitBothPlatforms(t *testing.T) {
	store := newFakeStore()
	creator := testCreator()
	svc := newTestService(store, creator)

	subs, err := svc.Submit(context.Background(), creator.ID, SubmitParams{
		TikTokURL:    " https://tiktok.com/@dana/video/1 ",
		InstagramURL: "https://instagram.com/reel/abc",
		Caption:      "spring haul",
		Hashtags:     "haul, spring",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs))
	}

	byPlatform := make(map[models.Platform]*models.VideoSubmission)
	for _, s := range subs {
		byPlatform[s.Platform] = s
	}
	tk := byPlatform[models.PlatformTikTok]
	if tk == nil {
		t.Fatal("no tiktok submission")
	}
	if tk.VideoURL != "https://tiktok.com/@dana/video/1" {
		t.Errorf("tiktok url = %q, want trimmed", tk.VideoURL)
	}
	if byPlatform[models.PlatformInstagram] == nil {
		t.Fatal("no instagram submission")
	}

	for _, s := range subs {
		if s.Status != models.SubmissionPending {
			t.Errorf("status = %q, want pending", s.Status)
		}
		if s.CreatorUsername != "dana" {
			t.Errorf("creator_username = %q, want dana", s.CreatorUsername)
		}
		if !reflect.DeepEqual(s.Hashtags, []string{"#haul", "#spring"}) {
			t.Errorf("hashtags = %v", s.Hashtags)
		}
	}

	if got := store.counts[creator.ID].total; got != 2 {
		t.Errorf("total_submissions delta = %d, want 2", got)
	}
}

func TestSubmitNoURL(t *testing.T) {
	creator := testCreator()
	svc := newTestService(newFakeStore(), creator)

	_, err := svc.Submit(context.Background(), creator.ID, SubmitParams{Caption: "no links"})
	if !errors.Is(err, domain.ErrNoVideoURL) {
		t.Errorf("err = %v, want ErrNoVideoURL", err)
	}
	_, err = svc.Submit(context.Background(), creator.ID, SubmitParams{TikTokURL: "   "})
	if !errors.Is(err, domain.ErrNoVideoURL) {
		t.Errorf("whitespace url err = %v, want ErrNoVideoURL", err)
	}
}

func TestSubmitDuplicateURL(t *testing.T) {
	store := newFakeStore()
	creator := testCreator()
	svc := newTestService(store, creator)
	ctx := context.Background()

	const url = "https://tiktok.com/@dana/video/1"
	if _, err := svc.Submit(ctx, creator.ID, SubmitParams{TikTokURL: url}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Same URL again, even by another creator: the URL is unique system-wide.
	other := testCreator()
	svcOther := newTestService(store, other)
	_, err := svcOther.Submit(ctx, other.ID, SubmitParams{TikTokURL: url})
	if !errors.Is(err, domain.ErrDuplicateURL) {
		t.Fatalf("err = %v, want ErrDuplicateURL", err)
	}
	if got := store.counts[other.ID].total; got != 0 {
		t.Errorf("failed submit bumped total_submissions by %d", got)
	}
}

func TestSubmitDuplicateWithinBatch(t *testing.T) {
	store := newFakeStore()
	creator := testCreator()
	svc := newTestService(store, creator)

	const url = "https://example.com/clip"
	_, err := svc.Submit(context.Background(), creator.ID, SubmitParams{
		TikTokURL:    url,
		InstagramURL: url,
	})
	if !errors.Is(err, domain.ErrDuplicateURL) {
		t.Errorf("err = %v, want ErrDuplicateURL", err)
	}
}

func TestReview(t *testing.T) {
	store := newFakeStore()
	creator := testCreator()
	svc := newTestService(store, creator)
	ctx := context.Background()
	adminID := uuid.New()

	subs, err := svc.Submit(ctx, creator.ID, SubmitParams{
		TikTokURL:    "https://tiktok.com/@dana/video/1",
		InstagramURL: "https://instagram.com/reel/abc",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	approved, err := svc.Review(ctx, subs[0].ID, adminID, ActionApprove, "great fit")
	if err != nil {
		t.Fatalf("Review approve: %v", err)
	}
	if approved.Status != models.SubmissionApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.AdminID == nil || *approved.AdminID != adminID {
		t.Errorf("admin_id = %v, want %v", approved.AdminID, adminID)
	}
	if approved.AdminFeedback != "great fit" {
		t.Errorf("feedback = %q", approved.AdminFeedback)
	}
	if approved.ReviewedAt == nil {
		t.Error("reviewed_at not set")
	}
	if got := store.counts[creator.ID].approved; got != 1 {
		t.Errorf("approved_submissions = %d, want 1", got)
	}

	rejected, err := svc.Review(ctx, subs[1].ID, adminID, ActionReject, "wrong platform")
	if err != nil {
		t.Fatalf("Review reject: %v", err)
	}
	if rejected.Status != models.SubmissionRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if got := store.counts[creator.ID].approved; got != 1 {
		t.Errorf("rejection changed approved_submissions to %d", got)
	}
}

func TestReviewOnce(t *testing.T) {
	store := newFakeStore()
	creator := testCreator()
	svc := newTestService(store, creator)
	ctx := context.Background()
	adminID := uuid.New()

	subs, err := svc.Submit(ctx, creator.ID, SubmitParams{TikTokURL: "https://tiktok.com/v/1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Review(ctx, subs[0].ID, adminID, ActionApprove, ""); err != nil {
		t.Fatalf("first review: %v", err)
	}

	for _, action := range []string{ActionApprove, ActionReject} {
		if _, err := svc.Review(ctx, subs[0].ID, adminID, action, ""); !errors.Is(err, domain.ErrAlreadyReviewed) {
			t.Errorf("re-review %q err = %v, want ErrAlreadyReviewed", action, err)
		}
	}
	if got := store.counts[creator.ID].approved; got != 1 {
		t.Errorf("approved_submissions = %d after re-review attempts, want 1", got)
	}
}

func TestReviewErrors(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	ctx := context.Background()

	if _, err := svc.Review(ctx, uuid.New(), uuid.New(), "publish", ""); !errors.Is(err, domain.ErrInvalidAction) {
		t.Errorf("invalid action err = %v, want ErrInvalidAction", err)
	}
	if _, err := svc.Review(ctx, uuid.New(), uuid.New(), ActionApprove, ""); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Errorf("unknown id err = %v, want ErrSubmissionNotFound", err)
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 3, 1, 23, 45, 12, 999, loc)
	got := StartOfDay(in)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != loc {
		t.Errorf("location = %v, want original zone", got.Location())
	}
}
