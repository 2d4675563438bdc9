package store

import (
	"context"
	"errors"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"

	"gorm.io/gorm"
)

// Friendships is the gorm-backed friendship ledger. The single-edge-per-pair
// invariant is structural: the (pair_min_id, pair_max_id) unique index makes
// a duplicate insert fail instead of silently forking the edge.
type Friendships struct {
	db *gorm.DB
}

func NewFriendships(db *gorm.DB) *Friendships {
	return &Friendships{db: db}
}

func (s *Friendships) FindEdge(ctx context.Context, a, b uint) (*models.Friendship, error) {
	lo, hi := models.NormalizePair(a, b)
	var edge models.Friendship
	err := s.db.WithContext(ctx).
		Where("pair_min_id = ? AND pair_max_id = ?", lo, hi).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &edge, nil
}

func (s *Friendships) FindEdgeByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var edge models.Friendship
	if err := s.db.WithContext(ctx).First(&edge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &edge, nil
}

func (s *Friendships) Create(ctx context.Context, edge *models.Friendship) error {
	if err := s.db.WithContext(ctx).Create(edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Someone beat us to this pair; from the caller's side the
			// request is already in flight.
			return domain.ErrRequestSent
		}
		return err
	}
	return nil
}

// AutoAccept flips a pending edge to accepted and removes any stale
// reverse-direction pending row for the same pair, as one transaction. The
// status guard makes the flip lose cleanly to a concurrent identical call.
func (s *Friendships) AutoAccept(ctx context.Context, edgeID uint, when time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edge models.Friendship
		if err := tx.First(&edge, edgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		res := tx.Model(&models.Friendship{}).
			Where("id = ? AND status = ?", edgeID, models.StatusPending).
			Updates(map[string]any{"status": models.StatusAccepted, "accepted_at": when})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyProcessed
		}

		// Clear any stale pending row pointing the other way for this
		// pair. The unique index should make this unreachable, but an
		// orphan from before the index existed must not survive the
		// accept.
		return tx.
			Where("id <> ? AND pair_min_id = ? AND pair_max_id = ? AND status = ?",
				edgeID, edge.PairMinID, edge.PairMaxID, models.StatusPending).
			Delete(&models.Friendship{}).Error
	})
}

// Resend reuses a rejected row for a new request: same edge, new requester,
// refreshed timestamps. The status guard closes the race with a concurrent
// transition.
func (s *Friendships) Resend(ctx context.Context, edgeID, requesterID uint, when time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edge models.Friendship
		if err := tx.First(&edge, edgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		addresseeID := edge.Other(requesterID)
		res := tx.Model(&models.Friendship{}).
			Where("id = ? AND status = ?", edgeID, models.StatusRejected).
			Updates(map[string]any{
				"status":       models.StatusPending,
				"requester_id": requesterID,
				"addressee_id": addresseeID,
				"created_at":   when,
				"accepted_at":  nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyProcessed
		}
		return nil
	})
}

func (s *Friendships) Resolve(ctx context.Context, edgeID uint, status models.FriendshipStatus, when time.Time) error {
	fields := map[string]any{"status": status}
	if status == models.StatusAccepted {
		fields["accepted_at"] = when
	}
	res := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ? AND status = ?", edgeID, models.StatusPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

func (s *Friendships) Delete(ctx context.Context, a, b uint) error {
	lo, hi := models.NormalizePair(a, b)
	res := s.db.WithContext(ctx).
		Where("pair_min_id = ? AND pair_max_id = ?", lo, hi).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Friendships) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var edges []models.Friendship
	err := s.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			models.StatusAccepted, userID, userID).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].Other(userID))
	}
	return ids, nil
}

func (s *Friendships) ListForUser(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var edges []models.Friendship
	err := s.db.WithContext(ctx).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Order("updated_at DESC").
		Preload("Requester").
		Preload("Addressee").
		Find(&edges).Error
	return edges, err
}
