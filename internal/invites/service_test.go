package invites

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

type fakeStore struct {
	invites     map[uuid.UUID]*models.Invite
	deactivated []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{invites: make(map[uuid.UUID]*models.Invite)}
}

func (f *fakeStore) Insert(_ context.Context, inv *models.Invite) error {
	f.invites[inv.ID] = inv
	return nil
}

func (f *fakeStore) GetActiveByCode(_ context.Context, code string) (*models.Invite, error) {
	for _, inv := range f.invites {
		if inv.Code == code && inv.IsActive {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Invite, error) {
	inv, ok := f.invites[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeStore) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	inv, ok := f.invites[id]
	if !ok || !inv.IsActive {
		return false, nil
	}
	inv.IsActive = false
	f.deactivated = append(f.deactivated, id)
	return true, nil
}

func (f *fakeStore) ListActive(_ context.Context, agencyID uuid.UUID) ([]models.Invite, error) {
	var out []models.Invite
	for _, inv := range f.invites {
		if inv.CorporationID == agencyID && inv.IsActive {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func newTestService(store Store) *Service {
	s := NewService(store, "https://portal.test/join", 30, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	agencyID, issuerID := uuid.New(), uuid.New()

	inv, err := svc.Create(context.Background(), agencyID, issuerID, CreateParams{
		Role: models.MemberRoleCreator,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(inv.Code) != codeLength {
		t.Errorf("code length = %d, want %d", len(inv.Code), codeLength)
	}
	if !strings.HasSuffix(inv.Link, "?code="+inv.Code) {
		t.Errorf("link %q does not embed code %q", inv.Link, inv.Code)
	}
	wantExpiry := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	if !inv.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires_at = %v, want default 30 days (%v)", inv.ExpiresAt, wantExpiry)
	}
	if inv.MaxUses != nil {
		t.Errorf("max_uses = %v, want nil (unlimited)", *inv.MaxUses)
	}
	if !inv.IsActive {
		t.Error("new invite should be active")
	}
	if inv.CreatedBy != issuerID {
		t.Errorf("created_by = %v, want %v", inv.CreatedBy, issuerID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	zero := 0

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"owner role not grantable", CreateParams{Role: models.MemberRoleOwner}},
		{"unknown role", CreateParams{Role: "superuser"}},
		{"zero max uses", CreateParams{Role: models.MemberRoleCreator, MaxUses: &zero}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), tt.params)
			if domain.KindOf(err) != domain.KindValidation {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	agencyID := uuid.New()

	inv, err := svc.Create(context.Background(), agencyID, uuid.New(), CreateParams{Role: models.MemberRoleCreator})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Validate(context.Background(), "  "+strings.ToLower(inv.Code)+" ")
	if err != nil {
		t.Fatalf("Validate with unnormalized code: %v", err)
	}
	if got.ID != inv.ID {
		t.Errorf("validated invite id = %v, want %v", got.ID, inv.ID)
	}

	if _, err := svc.Validate(context.Background(), "NOSUCHCD"); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("unknown code err = %v, want ErrInviteNotFound", err)
	}
	if _, err := svc.Validate(context.Background(), ""); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("empty code err = %v, want ErrInviteNotFound", err)
	}
}

func TestValidateLazyDeactivation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(inv *models.Invite)
	}{
		{"expired", func(inv *models.Invite) {
			inv.ExpiresAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		}},
		{"exhausted", func(inv *models.Invite) {
			one := 1
			inv.MaxUses = &one
			inv.CurrentUses = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store)

			inv, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateParams{Role: models.MemberRoleCreator})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			tt.mut(store.invites[inv.ID])

			_, err = svc.Validate(context.Background(), inv.Code)
			if !errors.Is(err, domain.ErrInviteExhausted) {
				t.Fatalf("err = %v, want ErrInviteExhausted", err)
			}
			if len(store.deactivated) != 1 || store.deactivated[0] != inv.ID {
				t.Errorf("deactivated = %v, want exactly [%v]", store.deactivated, inv.ID)
			}

			// Second attempt hits the deactivated row: plain not-found, no
			// second deactivation.
			_, err = svc.Validate(context.Background(), inv.Code)
			if !errors.Is(err, domain.ErrInviteNotFound) {
				t.Errorf("second attempt err = %v, want ErrInviteNotFound", err)
			}
			if len(store.deactivated) != 1 {
				t.Errorf("deactivations = %d, want 1", len(store.deactivated))
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	inv, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateParams{Role: models.MemberRoleAdmin})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	revoked, err := svc.Revoke(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked.IsActive {
		t.Error("revoked invite still active")
	}

	if _, err := svc.Revoke(context.Background(), inv.ID); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("double revoke err = %v, want ErrInviteNotFound", err)
	}
	if _, err := svc.Revoke(context.Background(), uuid.New()); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("unknown id err = %v, want ErrInviteNotFound", err)
	}
}
