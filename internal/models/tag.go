package models

import "gorm.io/gorm"

// Tag represents a group interest tag (e.g., "Hiking", "Chess", "Photography").
type Tag struct {
	gorm.Model
	Name string `gorm:"size:100;unique;not null"`
}
