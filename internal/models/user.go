package models

import "gorm.io/gorm"

// User represents a user in the system.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
	DisplayName  string `gorm:"size:255"`
	Bio          string `gorm:"size:1000"`
	AvatarURL    string `gorm:"size:512"`

	// Users are never hard-deleted; a deactivated user keeps their rows
	// but is excluded from search and cannot log in.
	IsDeactivated bool `gorm:"not null;default:false;index"`
}
