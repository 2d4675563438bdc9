package service

import (
	"context"
	"strings"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

// PostStore is the persistence contract for posts and repost lineage.
type PostStore interface {
	// GetPost returns a non-deleted post or domain.ErrNotFound.
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	// GetPostAny also resolves soft-deleted posts. Lineage rendering uses
	// it so a repost of a since-deleted post still shows its chain.
	GetPostAny(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	// CreateRepost inserts the repost and increments the immediate
	// parent's repost counter in one transaction.
	CreateRepost(ctx context.Context, post *models.Post, parentID uint) error
	SoftDelete(ctx context.Context, id uint) error
	// ListVisible pages through non-deleted posts a viewer may see,
	// newest first, applying the visibility predicate against the given
	// friend-set snapshot. authorID narrows to one author's profile.
	ListVisible(ctx context.Context, viewerID *uint, friendIDs []uint, authorID *uint, page, limit int) ([]models.Post, int64, error)
}

// FriendReader is the single cross-component read dependency in the core:
// the content store consults the relationship ledger, read-only, to
// evaluate friends-scoped visibility.
type FriendReader interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostService owns post creation, repost lineage and visibility resolution.
type PostService struct {
	Posts   PostStore
	Friends FriendReader
}

// Create publishes an original post (depth zero, no lineage).
func (s *PostService) Create(ctx context.Context, authorID uint, content string, images []string, visibility models.Visibility) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(images) == 0 {
		return nil, domain.ErrValidation
	}
	switch visibility {
	case models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate:
	default:
		return nil, domain.ErrValidation
	}

	post := &models.Post{
		AuthorID:   authorID,
		Content:    content,
		Images:     images,
		Visibility: visibility,
	}
	if err := s.Posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Repost creates a repost of an existing post. The root pointer is
// flattened to the true original, never chained through intermediate
// reposts, and the chain depth is bounded. Only the immediate parent's
// repost counter is incremented.
func (s *PostService) Repost(ctx context.Context, authorID, originalID uint, content string, images []string, visibility models.Visibility) (*models.Post, error) {
	switch visibility {
	case models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate:
	default:
		return nil, domain.ErrValidation
	}

	original, err := s.Posts.GetPost(ctx, originalID)
	if err != nil {
		return nil, err
	}

	rootID := originalID
	if original.RootPostID != nil {
		rootID = *original.RootPostID
	}
	depth := original.Depth + 1
	if depth > domain.MaxRepostDepth {
		return nil, domain.ErrDepthExceeded
	}

	post := &models.Post{
		AuthorID:       authorID,
		Content:        strings.TrimSpace(content),
		Images:         images,
		Visibility:     visibility,
		OriginalPostID: &originalID,
		RootPostID:     &rootID,
		Depth:          depth,
	}
	if err := s.Posts.CreateRepost(ctx, post, originalID); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete soft-deletes a post. Author only. The row survives as a lineage
// anchor for existing reposts; it just stops appearing in reads.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	post, err := s.Posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return domain.ErrUnauthorized
	}
	return s.Posts.SoftDelete(ctx, postID)
}

// Get resolves a single post under the visibility predicate. Invisible
// posts read as not found rather than forbidden, so private content does
// not leak its own existence.
func (s *PostService) Get(ctx context.Context, viewerID *uint, postID uint) (*models.Post, error) {
	post, err := s.Posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendSet(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !domain.CanSee(viewerID, friends, post) {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

// Original resolves a repost's immediate parent, tolerating a soft-deleted
// ancestor (the caller renders a tombstone in that case).
func (s *PostService) Original(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.OriginalPostID == nil {
		return nil, nil
	}
	return s.Posts.GetPostAny(ctx, *post.OriginalPostID)
}

// Feed pages through everything the viewer may see, newest first. The
// predicate runs per post at read time against a friend-set snapshot taken
// once per call, so a revoked friendship hides friends-scoped posts on the
// very next read with no writes to the posts themselves.
func (s *PostService) Feed(ctx context.Context, viewerID *uint, page, limit int) ([]models.Post, int64, error) {
	friends, err := s.friendIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return s.Posts.ListVisible(ctx, viewerID, friends, nil, page, limit)
}

// Profile is the feed predicate restricted to one author's posts.
func (s *PostService) Profile(ctx context.Context, viewerID *uint, authorID uint, page, limit int) ([]models.Post, int64, error) {
	friends, err := s.friendIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return s.Posts.ListVisible(ctx, viewerID, friends, &authorID, page, limit)
}

func (s *PostService) friendIDs(ctx context.Context, viewerID *uint) ([]uint, error) {
	if viewerID == nil {
		return nil, nil
	}
	ids, err := s.Friends.FriendIDs(ctx, *viewerID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostService) friendSet(ctx context.Context, viewerID *uint) (domain.FriendSet, error) {
	ids, err := s.friendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	set := make(domain.FriendSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
