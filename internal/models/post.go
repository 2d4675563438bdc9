package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Visibility defines who may read a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// Post represents an original post or a repost. A repost carries
// OriginalPostID (its immediate parent) and RootPostID (the non-repost
// ancestor, denormalized so lineage lookups never walk the chain).
type Post struct {
	gorm.Model
	AuthorID   uint                        `gorm:"not null;index"`
	Content    string                      `gorm:"size:4000"`
	Images     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Visibility Visibility                  `gorm:"type:varchar(20);not null;default:'public';index"`

	OriginalPostID *uint `gorm:"index"`
	RootPostID     *uint `gorm:"index"`
	Depth          int   `gorm:"not null;default:0"`
	RepostCount    int64 `gorm:"not null;default:0"`

	Author User `gorm:"foreignKey:AuthorID"`
}

// IsRepost reports whether the post was created by reposting another post.
func (p *Post) IsRepost() bool {
	return p.OriginalPostID != nil
}
