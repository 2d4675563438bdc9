package models

import "gorm.io/gorm"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// Message represents a chat message, either group-scoped (GroupID set) or
// direct (RecipientID set). Exactly one of the two is non-nil.
type Message struct {
	gorm.Model
	GroupID     *uint       `gorm:"index"`
	RecipientID *uint       `gorm:"index"`
	SenderID    *uint       // Nullable for system messages
	Type        MessageType `gorm:"size:50;not null;default:'text'"`
	Content     string      `gorm:"not null"`

	Sender User `gorm:"foreignKey:SenderID"` // Belongs to User
}
