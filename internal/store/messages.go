package store

import (
	"context"

	"circleup/backend/internal/models"

	"gorm.io/gorm"
)

// Messages is the gorm-backed chat history store.
type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (s *Messages) Create(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

func (s *Messages) ListGroupHistory(ctx context.Context, groupID uint, page, limit int) ([]models.Message, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Message{}).Where("group_id = ?", groupID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := q.Preload("Sender").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&msgs).Error
	return msgs, total, err
}

func (s *Messages) ListDirectHistory(ctx context.Context, a, b uint, page, limit int) ([]models.Message, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("group_id IS NULL").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := q.Preload("Sender").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&msgs).Error
	return msgs, total, err
}
