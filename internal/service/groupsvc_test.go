package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

type memberKey struct{ groupID, userID uint }

// memGroups is an in-memory GroupStore mirroring the transactional
// guarantees the gorm store gets from Postgres.
type memGroups struct {
	nextGroupID uint
	nextInvID   uint
	groups      map[uint]*models.Group
	members     map[memberKey]*models.GroupMember
	invitations map[uint]*models.GroupInvitation
}

func newMemGroups() *memGroups {
	return &memGroups{
		nextGroupID: 1,
		nextInvID:   1,
		groups:      map[uint]*models.Group{},
		members:     map[memberKey]*models.GroupMember{},
		invitations: map[uint]*models.GroupInvitation{},
	}
}

func (m *memGroups) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGroups) CreateWithFounder(ctx context.Context, group *models.Group, when time.Time) error {
	group.ID = m.nextGroupID
	m.nextGroupID++
	cp := *group
	m.groups[group.ID] = &cp
	m.members[memberKey{group.ID, group.LeaderID}] = &models.GroupMember{
		GroupID: group.ID, UserID: group.LeaderID, JoinedAt: when,
	}
	return nil
}

func (m *memGroups) UpdateGroup(ctx context.Context, id uint, fields map[string]any) error {
	g, ok := m.groups[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v, ok := fields["leader_id"]; ok {
		g.LeaderID = v.(uint)
	}
	if v, ok := fields["name"]; ok {
		g.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		g.Description = v.(string)
	}
	if v, ok := fields["portrait_url"]; ok {
		g.PortraitURL = v.(string)
	}
	return nil
}

func (m *memGroups) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	_, ok := m.members[memberKey{groupID, userID}]
	return ok, nil
}

func (m *memGroups) AddMember(ctx context.Context, member *models.GroupMember) error {
	key := memberKey{member.GroupID, member.UserID}
	if _, ok := m.members[key]; ok {
		return domain.ErrAlreadyMember
	}
	cp := *member
	m.members[key] = &cp
	return nil
}

func (m *memGroups) RemoveMembers(ctx context.Context, groupID uint, userIDs []uint) (int64, error) {
	var removed int64
	for _, id := range userIDs {
		key := memberKey{groupID, id}
		if _, ok := m.members[key]; ok {
			delete(m.members, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memGroups) ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for key, member := range m.members {
		if key.groupID == groupID {
			out = append(out, *member)
		}
	}
	return out, nil
}

func (m *memGroups) FindInvitationByID(ctx context.Context, id uint) (*models.GroupInvitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memGroups) UpsertInvitation(ctx context.Context, inv *models.GroupInvitation) error {
	for _, existing := range m.invitations {
		if existing.GroupID == inv.GroupID && existing.InviteeID == inv.InviteeID {
			existing.InviterID = inv.InviterID
			existing.Status = models.InvitationPending
			inv.ID = existing.ID
			return nil
		}
	}
	inv.ID = m.nextInvID
	m.nextInvID++
	cp := *inv
	m.invitations[inv.ID] = &cp
	return nil
}

func (m *memGroups) ResolveInvitation(ctx context.Context, invID uint, status models.InvitationStatus, when time.Time) error {
	inv, ok := m.invitations[invID]
	if !ok || inv.Status != models.InvitationPending {
		return domain.ErrAlreadyProcessed
	}
	inv.Status = status
	if status == models.InvitationAccepted {
		key := memberKey{inv.GroupID, inv.InviteeID}
		if _, exists := m.members[key]; !exists {
			m.members[key] = &models.GroupMember{GroupID: inv.GroupID, UserID: inv.InviteeID, JoinedAt: when}
		}
	}
	return nil
}

func (m *memGroups) ListInvitationsForUser(ctx context.Context, userID uint) ([]models.GroupInvitation, error) {
	var out []models.GroupInvitation
	for _, inv := range m.invitations {
		if inv.InviteeID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memGroups) Disband(ctx context.Context, groupID uint) error {
	g, ok := m.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	if g.IsDisbanded {
		return domain.ErrGroupDisbanded
	}
	g.IsDisbanded = true
	for key := range m.members {
		if key.groupID == groupID {
			delete(m.members, key)
		}
	}
	for id, inv := range m.invitations {
		if inv.GroupID == groupID {
			delete(m.invitations, id)
		}
	}
	return nil
}

func newGroupService(store *memGroups, users *stubUsers) *GroupService {
	return &GroupService{
		Users:  users,
		Groups: store,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func mustCreateGroup(t *testing.T, svc *GroupService, founderID uint) *models.Group {
	t.Helper()
	group, err := svc.Create(context.Background(), founderID, "Hiking Club", "weekend hikes", nil)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

func TestCreateGroupFounderIsLeaderAndMember(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1))

	group := mustCreateGroup(t, svc, 1)
	if group.LeaderID != 1 {
		t.Fatalf("leader = %d, want founder", group.LeaderID)
	}
	member, _ := svc.IsActiveMember(context.Background(), group.ID, 1)
	if !member {
		t.Fatal("founder should be on the roster")
	}
}

func TestJoinTwiceReported(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Join(context.Background(), group.ID, 2); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("second join err = %v, want already_member", err)
	}
}

func TestLeaderCannotLeave(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Leave(context.Background(), group.ID, 1); !errors.Is(err, domain.ErrLeaderCannotLeave) {
		t.Fatalf("leader leave err = %v, want leader_cannot_leave", err)
	}

	// After transferring, the former leader may leave like anyone else.
	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.TransferLeadership(context.Background(), group.ID, 1, 2); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := svc.Leave(context.Background(), group.ID, 1); err != nil {
		t.Fatalf("former leader leave: %v", err)
	}
}

func TestLeaveWhenNotAMember(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Leave(context.Background(), group.ID, 2); !errors.Is(err, domain.ErrNotAMember) {
		t.Fatalf("err = %v, want not_a_member", err)
	}
}

func TestKickRules(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2, 3, 4))
	group := mustCreateGroup(t, svc, 1)
	for _, id := range []uint{2, 3} {
		if err := svc.Join(context.Background(), group.ID, id); err != nil {
			t.Fatalf("join %d: %v", id, err)
		}
	}

	if _, err := svc.Kick(context.Background(), group.ID, 2, []uint{3}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-leader kick err = %v, want unauthorized", err)
	}
	if _, err := svc.Kick(context.Background(), group.ID, 1, []uint{2, 1}); !errors.Is(err, domain.ErrCannotKickSelf) {
		t.Fatalf("self kick err = %v, want cannot_kick_self", err)
	}

	// User 4 never joined; the count reflects rows actually removed.
	removed, err := svc.Kick(context.Background(), group.ID, 1, []uint{2, 3, 4})
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}

func TestKickedMemberMayRejoin(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Kick(context.Background(), group.ID, 1, []uint{2}); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("rejoin after kick: %v", err)
	}
}

func TestTransferLeadership(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2, 3))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.TransferLeadership(context.Background(), group.ID, 1, 3); !errors.Is(err, domain.ErrTargetNotMember) {
		t.Fatalf("transfer to outsider err = %v, want target_not_member", err)
	}
	// Transfer to self is a no-op, not an error.
	if err := svc.TransferLeadership(context.Background(), group.ID, 1, 1); err != nil {
		t.Fatalf("self transfer: %v", err)
	}

	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.TransferLeadership(context.Background(), group.ID, 1, 2); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// The old leader lost leader powers but stayed on the roster.
	if _, err := svc.Kick(context.Background(), group.ID, 1, []uint{2}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("old leader kick err = %v, want unauthorized", err)
	}
	member, _ := svc.IsActiveMember(context.Background(), group.ID, 1)
	if !member {
		t.Fatal("old leader should remain a member")
	}
}

func TestInviteFlow(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2, 3))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Invite(context.Background(), group.ID, 2, 3); !errors.Is(err, domain.ErrNotAMember) {
		t.Fatalf("outsider invite err = %v, want not_a_member", err)
	}
	if err := svc.Invite(context.Background(), group.ID, 1, 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self invite err = %v, want validation", err)
	}
	if err := svc.Invite(context.Background(), group.ID, 1, 3); err != nil {
		t.Fatalf("invite: %v", err)
	}

	invs, _ := svc.InvitationsFor(context.Background(), 3)
	if len(invs) != 1 {
		t.Fatalf("invitations = %d, want 1", len(invs))
	}

	if err := svc.RespondInvitation(context.Background(), 2, invs[0].ID, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-invitee accept err = %v, want unauthorized", err)
	}
	if err := svc.RespondInvitation(context.Background(), 3, invs[0].ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	member, _ := svc.IsActiveMember(context.Background(), group.ID, 3)
	if !member {
		t.Fatal("invitee should be a member after accepting")
	}
	if err := svc.RespondInvitation(context.Background(), 3, invs[0].ID, true); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("double accept err = %v, want already_processed", err)
	}
}

func TestReinviteAfterRejectionReusesRow(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Invite(context.Background(), group.ID, 1, 2); err != nil {
		t.Fatalf("invite: %v", err)
	}
	invs, _ := svc.InvitationsFor(context.Background(), 2)
	if err := svc.RespondInvitation(context.Background(), 2, invs[0].ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if err := svc.Invite(context.Background(), group.ID, 1, 2); err != nil {
		t.Fatalf("reinvite: %v", err)
	}
	invs, _ = svc.InvitationsFor(context.Background(), 2)
	if len(invs) != 1 {
		t.Fatalf("invitations = %d, want the rejected row reused", len(invs))
	}
	if invs[0].Status != models.InvitationPending {
		t.Fatalf("status = %q, want pending", invs[0].Status)
	}
}

func TestInviteExistingMemberRejected(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Invite(context.Background(), group.ID, 1, 2); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("err = %v, want already_member", err)
	}
}

func TestAcceptInvitationAfterDirectJoinConverges(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)

	if err := svc.Invite(context.Background(), group.ID, 1, 2); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("direct join: %v", err)
	}

	// Accepting the now-stale invitation must not error or duplicate the
	// membership.
	invs, _ := svc.InvitationsFor(context.Background(), 2)
	if err := svc.RespondInvitation(context.Background(), 2, invs[0].ID, true); err != nil {
		t.Fatalf("accept after join: %v", err)
	}
}

func TestDisband(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2, 3))
	group := mustCreateGroup(t, svc, 1)
	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Invite(context.Background(), group.ID, 1, 3); err != nil {
		t.Fatalf("invite: %v", err)
	}

	if err := svc.Disband(context.Background(), group.ID, 2); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-leader disband err = %v, want unauthorized", err)
	}
	if err := svc.Disband(context.Background(), group.ID, 1); err != nil {
		t.Fatalf("disband: %v", err)
	}

	// Everything downstream is gone and further mutations are refused.
	if member, _ := store.IsMember(context.Background(), group.ID, 2); member {
		t.Fatal("memberships should be cleared by disband")
	}
	if invs, _ := svc.InvitationsFor(context.Background(), 3); len(invs) != 0 {
		t.Fatalf("invitations = %d, want cleared", len(invs))
	}
	if err := svc.Join(context.Background(), group.ID, 2); !errors.Is(err, domain.ErrGroupDisbanded) {
		t.Fatalf("join after disband err = %v, want group_disbanded", err)
	}
	if err := svc.Disband(context.Background(), group.ID, 1); !errors.Is(err, domain.ErrGroupDisbanded) {
		t.Fatalf("double disband err = %v, want group_disbanded", err)
	}
}

func TestUpdateGroupLeaderOnly(t *testing.T) {
	store := newMemGroups()
	svc := newGroupService(store, activeUsers(1, 2))
	group := mustCreateGroup(t, svc, 1)
	if err := svc.Join(context.Background(), group.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}

	name := "Trail Runners"
	if err := svc.Update(context.Background(), group.ID, 2, &name, nil, nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("member rename err = %v, want unauthorized", err)
	}
	if err := svc.Update(context.Background(), group.ID, 1, &name, nil, nil); err != nil {
		t.Fatalf("rename: %v", err)
	}

	got, _ := store.GetGroup(context.Background(), group.ID)
	if got.Name != "Trail Runners" {
		t.Fatalf("name = %q, want renamed", got.Name)
	}

	empty := "   "
	if err := svc.Update(context.Background(), group.ID, 1, &empty, nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank rename err = %v, want validation", err)
	}
}
