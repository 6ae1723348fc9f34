package memberships

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

type fakeStore struct {
	byUser     map[uuid.UUID]*models.Membership
	inviteUses map[uuid.UUID]int
	// remaining uses per invite; simulates the conditional increment
	inviteCap map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byUser:     make(map[uuid.UUID]*models.Membership),
		inviteUses: make(map[uuid.UUID]int),
		inviteCap:  make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) GetByUser(_ context.Context, userID uuid.UUID) (*models.Membership, error) {
	m, ok := f.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) CommitJoin(_ context.Context, m *models.Membership, inviteID *uuid.UUID) error {
	if _, exists := f.byUser[m.UserID]; exists {
		return domain.ErrAlreadyMember
	}
	if inviteID != nil {
		if limit, capped := f.inviteCap[*inviteID]; capped && f.inviteUses[*inviteID] >= limit {
			return domain.ErrInviteExhausted
		}
		f.inviteUses[*inviteID]++
	}
	f.byUser[m.UserID] = m
	return nil
}

func (f *fakeStore) Approve(_ context.Context, agencyID, userID uuid.UUID) (*models.Membership, error) {
	m, ok := f.byUser[userID]
	if !ok || m.CorporationID != agencyID {
		return nil, domain.ErrMembershipNotFound
	}
	if m.Status != models.MembershipPending {
		return nil, domain.ErrMembershipNotPending
	}
	m.Status = models.MembershipActive
	cp := *m
	return &cp, nil
}

func (f *fakeStore) RejectPending(_ context.Context, agencyID, userID uuid.UUID) error {
	m, ok := f.byUser[userID]
	if !ok || m.CorporationID != agencyID {
		return domain.ErrMembershipNotFound
	}
	if m.Status != models.MembershipPending {
		return domain.ErrMembershipNotPending
	}
	delete(f.byUser, userID)
	return nil
}

type fakeAgencies struct {
	byID map[uuid.UUID]*models.Agency
}

func (f *fakeAgencies) GetByID(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	ag, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *ag
	return &cp, nil
}

type fakeValidator struct {
	byCode map[string]*models.Invite
}

func (f *fakeValidator) Validate(_ context.Context, code string) (*models.Invite, error) {
	inv, ok := f.byCode[code]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return inv, nil
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	agencies *fakeAgencies
	invites  *fakeValidator
}

func newFixture(ag *models.Agency) *fixture {
	store := newFakeStore()
	agencies := &fakeAgencies{byID: map[uuid.UUID]*models.Agency{ag.ID: ag}}
	invites := &fakeValidator{byCode: make(map[string]*models.Invite)}
	svc := NewService(store, agencies, invites, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, agencies: agencies, invites: invites}
}

func testAgency() *models.Agency {
	return &models.Agency{
		ID:          uuid.New(),
		Name:        "studio-nine",
		DisplayName: "Studio Nine",
		OwnerID:     uuid.New(),
		MemberCount: 1,
	}
}

func (fx *fixture) addInvite(role models.MembershipRole) *models.Invite {
	ag := firstAgency(fx.agencies)
	inv := &models.Invite{
		ID:            uuid.New(),
		CorporationID: ag.ID,
		Code:          "WELCOME1",
		CreatedBy:     ag.OwnerID,
		Role:          role,
		IsActive:      true,
	}
	fx.invites.byCode[inv.Code] = inv
	return inv
}

func firstAgency(f *fakeAgencies) *models.Agency {
	for _, ag := range f.byID {
		return ag
	}
	return nil
}

func TestJoinViaInvite(t *testing.T) {
	fx := newFixture(testAgency())
	inv := fx.addInvite(models.MemberRoleCreator)
	userID := uuid.New()

	ag, err := fx.svc.JoinViaInvite(context.Background(), userID, inv.Code)
	if err != nil {
		t.Fatalf("JoinViaInvite: %v", err)
	}
	if ag.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", ag.MemberCount)
	}

	m := fx.store.byUser[userID]
	if m == nil {
		t.Fatal("membership not persisted")
	}
	if m.Status != models.MembershipActive {
		t.Errorf("status = %q, want active (no approval required)", m.Status)
	}
	if m.Role != models.MemberRoleCreator {
		t.Errorf("role = %q, want creator", m.Role)
	}
	if m.InvitedBy == nil || *m.InvitedBy != inv.CreatedBy {
		t.Errorf("invited_by = %v, want issuer %v", m.InvitedBy, inv.CreatedBy)
	}
	if fx.store.inviteUses[inv.ID] != 1 {
		t.Errorf("invite uses = %d, want 1", fx.store.inviteUses[inv.ID])
	}
}

func TestJoinViaInviteOneMembershipGlobally(t *testing.T) {
	first := testAgency()
	fx := newFixture(first)
	inv := fx.addInvite(models.MemberRoleCreator)

	// Second agency with its own invite; the user already belongs to the first.
	second := testAgency()
	fx.agencies.byID[second.ID] = second
	otherInv := &models.Invite{
		ID: uuid.New(), CorporationID: second.ID, Code: "OTHERAGC",
		CreatedBy: second.OwnerID, Role: models.MemberRoleCreator, IsActive: true,
	}
	fx.invites.byCode[otherInv.Code] = otherInv

	userID := uuid.New()
	if _, err := fx.svc.JoinViaInvite(context.Background(), userID, inv.Code); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := fx.svc.JoinViaInvite(context.Background(), userID, otherInv.Code)
	if !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("second join err = %v, want ErrAlreadyMember", err)
	}
	if fx.store.inviteUses[otherInv.ID] != 0 {
		t.Errorf("rejected join consumed an invite use")
	}
}

func TestJoinViaInviteRequireApproval(t *testing.T) {
	ag := testAgency()
	ag.Settings.RequireApproval = true
	fx := newFixture(ag)
	inv := fx.addInvite(models.MemberRoleCreator)
	userID := uuid.New()

	if _, err := fx.svc.JoinViaInvite(context.Background(), userID, inv.Code); err != nil {
		t.Fatalf("JoinViaInvite: %v", err)
	}
	if got := fx.store.byUser[userID].Status; got != models.MembershipPending {
		t.Errorf("status = %q, want pending", got)
	}
}

func TestJoinViaInviteAgencyFull(t *testing.T) {
	ag := testAgency()
	ag.Settings.MaxCreators = 1
	ag.MemberCount = 1
	fx := newFixture(ag)
	inv := fx.addInvite(models.MemberRoleCreator)

	_, err := fx.svc.JoinViaInvite(context.Background(), uuid.New(), inv.Code)
	if !errors.Is(err, domain.ErrAgencyFull) {
		t.Errorf("err = %v, want ErrAgencyFull", err)
	}
}

func TestJoinViaInviteLastUseContention(t *testing.T) {
	// Two users race for an invite with one remaining use. The conditional
	// increment admits exactly one.
	fx := newFixture(testAgency())
	inv := fx.addInvite(models.MemberRoleCreator)
	fx.store.inviteCap[inv.ID] = 1

	if _, err := fx.svc.JoinViaInvite(context.Background(), uuid.New(), inv.Code); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	_, err := fx.svc.JoinViaInvite(context.Background(), uuid.New(), inv.Code)
	if !errors.Is(err, domain.ErrInviteExhausted) {
		t.Errorf("second redemption err = %v, want ErrInviteExhausted", err)
	}
	if fx.store.inviteUses[inv.ID] != 1 {
		t.Errorf("invite uses = %d, want 1", fx.store.inviteUses[inv.ID])
	}
}

func TestJoinPublic(t *testing.T) {
	ag := testAgency()
	ag.Settings.AllowPublicJoin = true
	fx := newFixture(ag)
	userID := uuid.New()

	got, err := fx.svc.JoinPublic(context.Background(), userID, ag.ID)
	if err != nil {
		t.Fatalf("JoinPublic: %v", err)
	}
	if got.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", got.MemberCount)
	}
	m := fx.store.byUser[userID]
	if m.Role != models.MemberRoleCreator {
		t.Errorf("role = %q, want creator", m.Role)
	}
	if m.Status != models.MembershipActive {
		t.Errorf("status = %q, want active", m.Status)
	}
	if m.InvitedBy != nil {
		t.Errorf("invited_by = %v, want nil for public join", m.InvitedBy)
	}
}

func TestJoinPublicDisabled(t *testing.T) {
	ag := testAgency()
	fx := newFixture(ag)

	_, err := fx.svc.JoinPublic(context.Background(), uuid.New(), ag.ID)
	if !errors.Is(err, domain.ErrPublicJoinDisabled) {
		t.Errorf("err = %v, want ErrPublicJoinDisabled", err)
	}
}

func TestJoinPublicWithApproval(t *testing.T) {
	// Public join and approval gating compose: the join succeeds but lands
	// pending.
	ag := testAgency()
	ag.Settings.AllowPublicJoin = true
	ag.Settings.RequireApproval = true
	fx := newFixture(ag)
	userID := uuid.New()

	if _, err := fx.svc.JoinPublic(context.Background(), userID, ag.ID); err != nil {
		t.Fatalf("JoinPublic: %v", err)
	}
	if got := fx.store.byUser[userID].Status; got != models.MembershipPending {
		t.Errorf("status = %q, want pending", got)
	}
}

func TestJoinUnknownAgency(t *testing.T) {
	fx := newFixture(testAgency())
	_, err := fx.svc.JoinPublic(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, domain.ErrAgencyNotFound) {
		t.Errorf("err = %v, want ErrAgencyNotFound", err)
	}
}

func TestApproveAndReject(t *testing.T) {
	ag := testAgency()
	ag.Settings.AllowPublicJoin = true
	ag.Settings.RequireApproval = true
	fx := newFixture(ag)
	ctx := context.Background()

	pendingUser := uuid.New()
	if _, err := fx.svc.JoinPublic(ctx, pendingUser, ag.ID); err != nil {
		t.Fatalf("JoinPublic: %v", err)
	}

	m, err := fx.svc.ApproveMembership(ctx, ag.ID, pendingUser)
	if err != nil {
		t.Fatalf("ApproveMembership: %v", err)
	}
	if m.Status != models.MembershipActive {
		t.Errorf("status = %q, want active", m.Status)
	}

	// Approving twice hits a non-pending membership.
	if _, err := fx.svc.ApproveMembership(ctx, ag.ID, pendingUser); !errors.Is(err, domain.ErrMembershipNotPending) {
		t.Errorf("double approve err = %v, want ErrMembershipNotPending", err)
	}
	// Rejecting an active membership is also a conflict.
	if err := fx.svc.RejectMembership(ctx, ag.ID, pendingUser); !errors.Is(err, domain.ErrMembershipNotPending) {
		t.Errorf("reject active err = %v, want ErrMembershipNotPending", err)
	}

	rejectedUser := uuid.New()
	if _, err := fx.svc.JoinPublic(ctx, rejectedUser, ag.ID); err != nil {
		t.Fatalf("JoinPublic: %v", err)
	}
	if err := fx.svc.RejectMembership(ctx, ag.ID, rejectedUser); err != nil {
		t.Fatalf("RejectMembership: %v", err)
	}
	got, err := fx.svc.GetMembership(ctx, rejectedUser)
	if err != nil {
		t.Fatalf("GetMembership: %v", err)
	}
	if got != nil {
		t.Errorf("membership after reject = %+v, want nil", got)
	}

	if _, err := fx.svc.ApproveMembership(ctx, ag.ID, uuid.New()); !errors.Is(err, domain.ErrMembershipNotFound) {
		t.Errorf("approve unknown err = %v, want ErrMembershipNotFound", err)
	}
}
