package service

import (
	"context"
	"strings"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

// MessageStore is the persistence contract for chat history.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListGroupHistory(ctx context.Context, groupID uint, page, limit int) ([]models.Message, int64, error)
	ListDirectHistory(ctx context.Context, a, b uint, page, limit int) ([]models.Message, int64, error)
}

// MembershipGate is what the messaging layer checks before admitting a
// group write: disband state first, then active membership.
type MembershipGate interface {
	IsDisbanded(ctx context.Context, groupID uint) (bool, error)
	IsActiveMember(ctx context.Context, groupID, userID uint) (bool, error)
}

// MessageService is the thin messaging gate in front of the message store.
type MessageService struct {
	Messages MessageStore
	Groups   MembershipGate
	Users    UsersStore
	Now      func() time.Time
}

// SendToGroup writes a group message after the gate checks pass.
func (s *MessageService) SendToGroup(ctx context.Context, senderID, groupID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrValidation
	}

	disbanded, err := s.Groups.IsDisbanded(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if disbanded {
		return nil, domain.ErrGroupDisbanded
	}
	member, err := s.Groups.IsActiveMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrNotAMember
	}

	msg := &models.Message{
		GroupID:  &groupID,
		SenderID: &senderID,
		Type:     models.MessageTypeText,
		Content:  content,
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SendDirect writes a direct message to an existing, active recipient.
func (s *MessageService) SendDirect(ctx context.Context, senderID, recipientID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || senderID == recipientID {
		return nil, domain.ErrValidation
	}

	recipient, err := s.Users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient.IsDeactivated {
		return nil, domain.ErrUserDeactivated
	}

	msg := &models.Message{
		RecipientID: &recipientID,
		SenderID:    &senderID,
		Type:        models.MessageTypeText,
		Content:     content,
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// GroupHistory pages through a group's messages; members only.
func (s *MessageService) GroupHistory(ctx context.Context, viewerID, groupID uint, page, limit int) ([]models.Message, int64, error) {
	member, err := s.Groups.IsActiveMember(ctx, groupID, viewerID)
	if err != nil {
		return nil, 0, err
	}
	if !member {
		return nil, 0, domain.ErrNotAMember
	}
	return s.Messages.ListGroupHistory(ctx, groupID, page, limit)
}

// DirectHistory pages through the conversation between the viewer and one
// other user.
func (s *MessageService) DirectHistory(ctx context.Context, viewerID, otherID uint, page, limit int) ([]models.Message, int64, error) {
	return s.Messages.ListDirectHistory(ctx, viewerID, otherID, page, limit)
}
