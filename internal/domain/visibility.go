package domain

import "circleup/backend/internal/models"

// MaxRepostDepth bounds the repost chain. The denormalized root pointer
// keeps lineage lookups O(1), but an unbounded chain would still let the
// tree grow without limit.
const MaxRepostDepth = 10

// FriendSet is a point-in-time snapshot of a viewer's accepted friendships,
// taken once per read request. Visibility is never cached on the post row,
// so a revoked friendship hides friends-scoped posts on the very next read.
type FriendSet map[uint]bool

// CanSee is the visibility predicate applied per post at read time.
// A nil viewerID is an anonymous reader and sees only public posts.
func CanSee(viewerID *uint, friends FriendSet, post *models.Post) bool {
	if viewerID != nil && *viewerID == post.AuthorID {
		return true
	}
	switch post.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFriends:
		return viewerID != nil && friends[post.AuthorID]
	default:
		return false
	}
}
