package store

import (
	"context"
	"errors"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Groups is the gorm-backed group ledger. Founding, invitation acceptance
// and disband are transactional; membership uniqueness rides on the
// composite primary key.
type Groups struct {
	db *gorm.DB
}

func NewGroups(db *gorm.DB) *Groups {
	return &Groups{db: db}
}

func (s *Groups) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).Preload("Tags").First(&group, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (s *Groups) CreateWithFounder(ctx context.Context, group *models.Group, when time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{
			GroupID:  group.ID,
			UserID:   group.LeaderID,
			JoinedAt: when,
		}).Error
	})
}

func (s *Groups) UpdateGroup(ctx context.Context, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Groups) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Groups) AddMember(ctx context.Context, member *models.GroupMember) error {
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (s *Groups) RemoveMembers(ctx context.Context, groupID uint, userIDs []uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id IN ?", groupID, userIDs).
		Delete(&models.GroupMember{})
	return res.RowsAffected, res.Error
}

func (s *Groups) ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Preload("User").
		Find(&members).Error
	return members, err
}

func (s *Groups) FindInvitationByID(ctx context.Context, id uint) (*models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if err := s.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// UpsertInvitation keeps at most one invitation row per (group, invitee):
// a re-invite resets the existing row back to pending under a new inviter
// instead of inserting a duplicate.
func (s *Groups) UpsertInvitation(ctx context.Context, inv *models.GroupInvitation) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "invitee_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     models.InvitationPending,
			"inviter_id": inv.InviterID,
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(inv).Error
}

// ResolveInvitation marks a pending invitation and, on accept, inserts the
// membership skip-on-conflict in the same transaction. Invitation accept
// and direct join are the two paths that converge on the membership row;
// the ON CONFLICT DO NOTHING is what keeps them from double-inserting.
func (s *Groups) ResolveInvitation(ctx context.Context, invID uint, status models.InvitationStatus, when time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.GroupInvitation
		if err := tx.First(&inv, invID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		res := tx.Model(&models.GroupInvitation{}).
			Where("id = ? AND status = ?", invID, models.InvitationPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyProcessed
		}

		if status != models.InvitationAccepted {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.GroupMember{
			GroupID:  inv.GroupID,
			UserID:   inv.InviteeID,
			JoinedAt: when,
		}).Error
	})
}

func (s *Groups) ListInvitationsForUser(ctx context.Context, userID uint) ([]models.GroupInvitation, error) {
	var invs []models.GroupInvitation
	err := s.db.WithContext(ctx).
		Where("invitee_id = ?", userID).
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END, created_at DESC").
		Preload("Group").
		Preload("Inviter").
		Find(&invs).Error
	return invs, err
}

// Disband flags the group and cascades deletion of its invitations,
// memberships and message history in one transaction. A failure anywhere
// rolls the whole thing back; there is no partially disbanded state.
func (s *Groups) Disband(ctx context.Context, groupID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).
			Where("id = ? AND is_disbanded = ?", groupID, false).
			Update("is_disbanded", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrGroupDisbanded
		}

		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("group_id = ?", groupID).Delete(&models.Message{}).Error
	})
}
