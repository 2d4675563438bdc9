package models

import (
	"time"

	"gorm.io/gorm"
)

// Group represents an interest group users can join.
type Group struct {
	gorm.Model
	Name        string `gorm:"size:255;not null"`
	Description string
	PortraitURL string `gorm:"size:512"`
	LeaderID    uint   `gorm:"not null;index"`
	Tags        []*Tag `gorm:"many2many:group_tags;"`

	// Disbanding is terminal: once set, no membership or invitation
	// write is accepted for this group again.
	IsDisbanded bool `gorm:"not null;default:false;index"`

	Leader User `gorm:"foreignKey:LeaderID"`
}

// GroupMember is a membership row, unique per (group, user).
type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"primaryKey"`
	JoinedAt time.Time `gorm:"not null"`

	Group Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User  User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
