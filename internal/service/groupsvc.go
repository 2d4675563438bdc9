package service

import (
	"context"
	"strings"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

// GroupStore is the persistence contract for groups, memberships and
// invitations. Multi-row operations (founding, invitation accept, disband)
// are transactional inside the store.
type GroupStore interface {
	GetGroup(ctx context.Context, id uint) (*models.Group, error)
	// CreateWithFounder inserts the group and its leader membership as one
	// transaction, so a group never exists without its leader on the roster.
	CreateWithFounder(ctx context.Context, group *models.Group, when time.Time) error
	UpdateGroup(ctx context.Context, id uint, fields map[string]any) error

	IsMember(ctx context.Context, groupID, userID uint) (bool, error)
	// AddMember inserts a membership row; a duplicate surfaces as
	// domain.ErrAlreadyMember via the composite primary key.
	AddMember(ctx context.Context, member *models.GroupMember) error
	// RemoveMembers deletes the given members in one batch and reports how
	// many rows actually went away.
	RemoveMembers(ctx context.Context, groupID uint, userIDs []uint) (int64, error)
	ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error)

	FindInvitationByID(ctx context.Context, id uint) (*models.GroupInvitation, error)
	// UpsertInvitation writes the single invitation row per (group,
	// invitee), resetting a previously rejected one back to pending.
	UpsertInvitation(ctx context.Context, inv *models.GroupInvitation) error
	// ResolveInvitation marks a pending invitation accepted or rejected;
	// on accept it also inserts the membership skip-on-conflict, in the
	// same transaction, so it converges with a direct join. Returns
	// domain.ErrAlreadyProcessed if the invitation is no longer pending.
	ResolveInvitation(ctx context.Context, invID uint, status models.InvitationStatus, when time.Time) error
	ListInvitationsForUser(ctx context.Context, userID uint) ([]models.GroupInvitation, error)

	// Disband flags the group and cascades deletion of invitations,
	// memberships and group messages as one transaction. There is no
	// partially disbanded state.
	Disband(ctx context.Context, groupID uint) error
}

// GroupService owns the group roster and the single-leader invariant.
type GroupService struct {
	Users  UsersStore
	Groups GroupStore
	Now    func() time.Time
}

func (s *GroupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// activeGroup loads a group and short-circuits every mutation on a
// disbanded one.
func (s *GroupService) activeGroup(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsDisbanded {
		return nil, domain.ErrGroupDisbanded
	}
	return group, nil
}

// Create founds a group: the creator becomes leader and first member
// atomically.
func (s *GroupService) Create(ctx context.Context, founderID uint, name, description string, tags []*models.Tag) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation
	}
	group := &models.Group{
		Name:        name,
		Description: description,
		LeaderID:    founderID,
		Tags:        tags,
	}
	if err := s.Groups.CreateWithFounder(ctx, group, s.now()); err != nil {
		return nil, err
	}
	return group, nil
}

// Join adds a user to the roster. Already being a member is reported, not
// silently ignored; kicked or departed members may rejoin freely.
func (s *GroupService) Join(ctx context.Context, groupID, userID uint) error {
	if _, err := s.activeGroup(ctx, groupID); err != nil {
		return err
	}
	return s.Groups.AddMember(ctx, &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: s.now(),
	})
}

// Leave removes a user from the roster. The leader cannot leave; they must
// transfer leadership or disband first.
func (s *GroupService) Leave(ctx context.Context, groupID, userID uint) error {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.LeaderID == userID {
		return domain.ErrLeaderCannotLeave
	}
	removed, err := s.Groups.RemoveMembers(ctx, groupID, []uint{userID})
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrNotAMember
	}
	return nil
}

// Invite upserts a pending invitation for a user who is not yet a member.
// The inviter must be on the roster; re-inviting after a rejection resets
// the same row back to pending.
func (s *GroupService) Invite(ctx context.Context, groupID, inviterID, inviteeID uint) error {
	if _, err := s.activeGroup(ctx, groupID); err != nil {
		return err
	}
	if inviterID == inviteeID {
		return domain.ErrValidation
	}

	isMember, err := s.Groups.IsMember(ctx, groupID, inviterID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrNotAMember
	}

	invitee, err := s.Users.GetByID(ctx, inviteeID)
	if err != nil {
		return err
	}
	if invitee.IsDeactivated {
		return domain.ErrUserDeactivated
	}

	already, err := s.Groups.IsMember(ctx, groupID, inviteeID)
	if err != nil {
		return err
	}
	if already {
		return domain.ErrAlreadyMember
	}

	return s.Groups.UpsertInvitation(ctx, &models.GroupInvitation{
		GroupID:   groupID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    models.InvitationPending,
	})
}

// RespondInvitation accepts or rejects a pending invitation. Only the
// invitee may respond. Accepting also inserts the membership, tolerating a
// direct join that happened in the meantime.
func (s *GroupService) RespondInvitation(ctx context.Context, actorID, invitationID uint, accept bool) error {
	inv, err := s.Groups.FindInvitationByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.InviteeID != actorID {
		return domain.ErrUnauthorized
	}
	if inv.Status != models.InvitationPending {
		return domain.ErrAlreadyProcessed
	}
	if _, err := s.activeGroup(ctx, inv.GroupID); err != nil {
		return err
	}

	status := models.InvitationRejected
	if accept {
		status = models.InvitationAccepted
	}
	return s.Groups.ResolveInvitation(ctx, inv.ID, status, s.now())
}

// Kick removes members in one batch. Leader only; the leader's own id in
// the target list is rejected outright, steering the caller toward
// transfer-or-disband. The returned count may be lower than requested when
// some targets were already off the roster.
func (s *GroupService) Kick(ctx context.Context, groupID, actorID uint, targetIDs []uint) (int64, error) {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if group.LeaderID != actorID {
		return 0, domain.ErrUnauthorized
	}
	for _, id := range targetIDs {
		if id == actorID {
			return 0, domain.ErrCannotKickSelf
		}
	}
	if len(targetIDs) == 0 {
		return 0, nil
	}
	return s.Groups.RemoveMembers(ctx, groupID, targetIDs)
}

// TransferLeadership hands the group to another current member. The former
// leader stays on the roster as an ordinary member.
func (s *GroupService) TransferLeadership(ctx context.Context, groupID, actorID, newLeaderID uint) error {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.LeaderID != actorID {
		return domain.ErrUnauthorized
	}
	if newLeaderID == actorID {
		return nil
	}
	isMember, err := s.Groups.IsMember(ctx, groupID, newLeaderID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrTargetNotMember
	}
	return s.Groups.UpdateGroup(ctx, groupID, map[string]any{"leader_id": newLeaderID})
}

// Update renames the group or changes its portrait. Leader only.
func (s *GroupService) Update(ctx context.Context, groupID, actorID uint, name, description, portraitURL *string) error {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.LeaderID != actorID {
		return domain.ErrUnauthorized
	}

	fields := map[string]any{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return domain.ErrValidation
		}
		fields["name"] = trimmed
	}
	if description != nil {
		fields["description"] = *description
	}
	if portraitURL != nil {
		fields["portrait_url"] = *portraitURL
	}
	if len(fields) == 0 {
		return nil
	}
	return s.Groups.UpdateGroup(ctx, groupID, fields)
}

// Disband irreversibly shuts the group down, cascading removal of
// invitations, memberships and group message history.
func (s *GroupService) Disband(ctx context.Context, groupID, actorID uint) error {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.LeaderID != actorID {
		return domain.ErrUnauthorized
	}
	return s.Groups.Disband(ctx, groupID)
}

// IsDisbanded and IsActiveMember are the two predicates the messaging gate
// consults before admitting a write.

func (s *GroupService) IsDisbanded(ctx context.Context, groupID uint) (bool, error) {
	group, err := s.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.IsDisbanded, nil
}

func (s *GroupService) IsActiveMember(ctx context.Context, groupID, userID uint) (bool, error) {
	return s.Groups.IsMember(ctx, groupID, userID)
}

// Members lists the current roster.
func (s *GroupService) Members(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	return s.Groups.ListMembers(ctx, groupID)
}

// InvitationsFor lists a user's invitations, pending first.
func (s *GroupService) InvitationsFor(ctx context.Context, userID uint) ([]models.GroupInvitation, error) {
	return s.Groups.ListInvitationsForUser(ctx, userID)
}
