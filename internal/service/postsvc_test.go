package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

// memPosts is an in-memory PostStore applying the same visibility predicate
// the gorm store pushes into SQL.
type memPosts struct {
	nextID uint
	posts  map[uint]*models.Post
}

func newMemPosts() *memPosts {
	return &memPosts{nextID: 1, posts: map[uint]*models.Post{}}
}

func (m *memPosts) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) GetPostAny(ctx context.Context, id uint) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = m.nextID
	m.nextID++
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memPosts) CreateRepost(ctx context.Context, post *models.Post, parentID uint) error {
	parent, ok := m.posts[parentID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := m.CreatePost(ctx, post); err != nil {
		return err
	}
	parent.RepostCount++
	return nil
}

func (m *memPosts) SoftDelete(ctx context.Context, id uint) error {
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.DeletedAt.Valid = true
	return nil
}

func (m *memPosts) ListVisible(ctx context.Context, viewerID *uint, friendIDs []uint, authorID *uint, page, limit int) ([]models.Post, int64, error) {
	friends := make(domain.FriendSet, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = true
	}

	var visible []models.Post
	for _, p := range m.posts {
		if p.DeletedAt.Valid {
			continue
		}
		if authorID != nil && p.AuthorID != *authorID {
			continue
		}
		if domain.CanSee(viewerID, friends, p) {
			visible = append(visible, *p)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID > visible[j].ID })

	total := int64(len(visible))
	start := (page - 1) * limit
	if start >= len(visible) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], total, nil
}

// stubFriends serves the adjacency snapshot from a fixed table.
type stubFriends struct {
	friends map[uint][]uint
}

func (s *stubFriends) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.friends[userID], nil
}

func newPostService(store *memPosts, friends map[uint][]uint) *PostService {
	return &PostService{Posts: store, Friends: &stubFriends{friends: friends}}
}

func mustPost(t *testing.T, svc *PostService, authorID uint, vis models.Visibility) *models.Post {
	t.Helper()
	post, err := svc.Create(context.Background(), authorID, "hello", nil, vis)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestCreatePostValidation(t *testing.T) {
	svc := newPostService(newMemPosts(), nil)

	if _, err := svc.Create(context.Background(), 1, "   ", nil, models.VisibilityPublic); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank content err = %v, want validation", err)
	}
	if _, err := svc.Create(context.Background(), 1, "hi", nil, "followers"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad visibility err = %v, want validation", err)
	}
	// An image-only post is fine.
	if _, err := svc.Create(context.Background(), 1, "", []string{"/media/a.png"}, models.VisibilityPublic); err != nil {
		t.Fatalf("image-only post: %v", err)
	}
}

func TestRepostLineage(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, nil)

	original := mustPost(t, svc, 1, models.VisibilityPublic)
	first, err := svc.Repost(context.Background(), 2, original.ID, "nice", nil, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("repost: %v", err)
	}
	second, err := svc.Repost(context.Background(), 3, first.ID, "", nil, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("repost of repost: %v", err)
	}

	// The root pointer flattens to the true original, never the parent.
	if *second.RootPostID != original.ID {
		t.Fatalf("root = %d, want the original %d", *second.RootPostID, original.ID)
	}
	if *second.OriginalPostID != first.ID {
		t.Fatalf("parent = %d, want the immediate parent %d", *second.OriginalPostID, first.ID)
	}
	if second.Depth != 2 {
		t.Fatalf("depth = %d, want 2", second.Depth)
	}

	// Only the immediate parent's counter moved.
	parent, _ := store.GetPost(context.Background(), first.ID)
	root, _ := store.GetPost(context.Background(), original.ID)
	if parent.RepostCount != 1 {
		t.Fatalf("parent count = %d, want 1", parent.RepostCount)
	}
	if root.RepostCount != 1 {
		t.Fatalf("root count = %d, want 1 (only its direct repost)", root.RepostCount)
	}
}

func TestRepostDepthBounded(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, nil)

	post := mustPost(t, svc, 1, models.VisibilityPublic)
	var err error
	for i := 0; i < domain.MaxRepostDepth; i++ {
		post, err = svc.Repost(context.Background(), 1, post.ID, "", nil, models.VisibilityPublic)
		if err != nil {
			t.Fatalf("repost at depth %d: %v", i+1, err)
		}
	}
	if _, err := svc.Repost(context.Background(), 1, post.ID, "", nil, models.VisibilityPublic); !errors.Is(err, domain.ErrDepthExceeded) {
		t.Fatalf("err = %v, want repost_depth_exceeded", err)
	}
}

func TestDeleteAuthorOnly(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, nil)
	post := mustPost(t, svc, 1, models.VisibilityPublic)

	if err := svc.Delete(context.Background(), 2, post.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger delete err = %v, want unauthorized", err)
	}
	if err := svc.Delete(context.Background(), 1, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetPost(context.Background(), post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted post read err = %v, want not_found", err)
	}
}

func TestRepostOfDeletedPostStillResolvesLineage(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, nil)

	original := mustPost(t, svc, 1, models.VisibilityPublic)
	repost, err := svc.Repost(context.Background(), 2, original.ID, "", nil, models.VisibilityPublic)
	if err != nil {
		t.Fatalf("repost: %v", err)
	}
	if err := svc.Delete(context.Background(), 1, original.ID); err != nil {
		t.Fatalf("delete original: %v", err)
	}

	// The repost survives and its parent is still resolvable for
	// tombstone rendering.
	parent, err := svc.Original(context.Background(), repost)
	if err != nil {
		t.Fatalf("original: %v", err)
	}
	if parent == nil || parent.ID != original.ID {
		t.Fatal("deleted parent should still resolve through lineage")
	}
	// But reposting the deleted post itself is refused.
	if _, err := svc.Repost(context.Background(), 3, original.ID, "", nil, models.VisibilityPublic); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("repost of deleted err = %v, want not_found", err)
	}
}

func TestGetHidesInvisiblePostsAsNotFound(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, map[uint][]uint{2: {1}})

	friendsPost := mustPost(t, svc, 1, models.VisibilityFriends)
	privatePost := mustPost(t, svc, 1, models.VisibilityPrivate)

	friendID := uint(2)
	strangerID := uint(3)

	if _, err := svc.Get(context.Background(), &friendID, friendsPost.ID); err != nil {
		t.Fatalf("friend read: %v", err)
	}
	if _, err := svc.Get(context.Background(), &strangerID, friendsPost.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger read err = %v, want not_found", err)
	}
	if _, err := svc.Get(context.Background(), nil, friendsPost.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("anonymous read err = %v, want not_found", err)
	}
	if _, err := svc.Get(context.Background(), &friendID, privatePost.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("friend reading private err = %v, want not_found", err)
	}
}

func TestFeedVisibility(t *testing.T) {
	store := newMemPosts()
	friends := map[uint][]uint{2: {1}}
	svc := newPostService(store, friends)

	mustPost(t, svc, 1, models.VisibilityPublic)
	mustPost(t, svc, 1, models.VisibilityFriends)
	mustPost(t, svc, 1, models.VisibilityPrivate)

	friendID := uint(2)
	strangerID := uint(3)
	authorID := uint(1)

	cases := []struct {
		name   string
		viewer *uint
		want   int64
	}{
		{"anonymous sees public only", nil, 1},
		{"stranger sees public only", &strangerID, 1},
		{"friend sees public and friends-scoped", &friendID, 2},
		{"author sees everything", &authorID, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, total, err := svc.Feed(context.Background(), tc.viewer, 1, 10)
			if err != nil {
				t.Fatalf("feed: %v", err)
			}
			if total != tc.want {
				t.Fatalf("total = %d, want %d", total, tc.want)
			}
		})
	}
}

func TestFeedReflectsRevokedFriendship(t *testing.T) {
	store := newMemPosts()
	friends := map[uint][]uint{2: {1}}
	svc := newPostService(store, friends)

	mustPost(t, svc, 1, models.VisibilityFriends)
	viewerID := uint(2)

	_, total, err := svc.Feed(context.Background(), &viewerID, 1, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1 while friends", total)
	}

	// Revoking the friendship hides the post on the very next read; the
	// post row itself never changes.
	delete(friends, 2)
	_, total, err = svc.Feed(context.Background(), &viewerID, 1, 10)
	if err != nil {
		t.Fatalf("feed after revoke: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0 after revoke", total)
	}
}

func TestProfileRestrictsToAuthor(t *testing.T) {
	store := newMemPosts()
	svc := newPostService(store, nil)

	mustPost(t, svc, 1, models.VisibilityPublic)
	mustPost(t, svc, 2, models.VisibilityPublic)

	posts, total, err := svc.Profile(context.Background(), nil, 1, 1, 10)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if total != 1 || len(posts) != 1 || posts[0].AuthorID != 1 {
		t.Fatalf("profile returned %d posts (total %d), want only author 1", len(posts), total)
	}
}
