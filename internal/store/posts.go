package store

import (
	"context"
	"errors"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"

	"gorm.io/gorm"
)

// Posts is the gorm-backed content store. Soft delete rides on gorm's
// DeletedAt; lineage reads go through Unscoped so a deleted ancestor does
// not break a surviving repost's chain.
type Posts struct {
	db *gorm.DB
}

func NewPosts(db *gorm.DB) *Posts {
	return &Posts{db: db}
}

func (s *Posts) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Posts) GetPostAny(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Unscoped().Preload("Author").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Posts) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

// CreateRepost inserts the repost and bumps the immediate parent's repost
// counter in one transaction. Reposts-of-reposts each credit only their
// direct parent, never the root.
func (s *Posts) CreateRepost(ctx context.Context, post *models.Post, parentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Post{}).
			Where("id = ?", parentID).
			Update("repost_count", gorm.Expr("repost_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Posts) SoftDelete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListVisible pages through non-deleted posts the viewer may see, newest
// first. The WHERE clause is the visibility predicate evaluated per row at
// read time against the caller's friend-set snapshot; nothing about
// visibility is cached on the post.
func (s *Posts) ListVisible(ctx context.Context, viewerID *uint, friendIDs []uint, authorID *uint, page, limit int) ([]models.Post, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{})

	if viewerID == nil {
		q = q.Where("visibility = ?", models.VisibilityPublic)
	} else if len(friendIDs) > 0 {
		q = q.Where(
			"author_id = ? OR visibility = ? OR (visibility = ? AND author_id IN ?)",
			*viewerID, models.VisibilityPublic, models.VisibilityFriends, friendIDs,
		)
	} else {
		q = q.Where("author_id = ? OR visibility = ?", *viewerID, models.VisibilityPublic)
	}

	if authorID != nil {
		q = q.Where("author_id = ?", *authorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := q.Preload("Author").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}
