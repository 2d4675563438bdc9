package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus defines the state of the single edge between two users.
type FriendshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet answered.
	// Direction matters only in this state: RequesterID identifies who asked.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted means the users are friends. The edge is symmetric.
	StatusAccepted FriendshipStatus = "accepted"

	// StatusRejected means the request was declined. The row is kept so a
	// later re-send reuses it instead of creating a duplicate edge.
	StatusRejected FriendshipStatus = "rejected"
)

// Friendship is the single relationship row between two users. At most one
// row exists per unordered pair, enforced by the (pair_min_id, pair_max_id)
// unique index; the normalized pair columns are filled in by BeforeSave.
type Friendship struct {
	ID          uint             `gorm:"primaryKey"`
	RequesterID uint             `gorm:"not null;index"`
	AddresseeID uint             `gorm:"not null;index"`
	PairMinID   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	PairMaxID   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Addressee User `gorm:"foreignKey:AddresseeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// BeforeSave keeps the normalized pair columns consistent with the
// requester/addressee pair regardless of direction.
func (f *Friendship) BeforeSave(_ *gorm.DB) error {
	f.PairMinID, f.PairMaxID = NormalizePair(f.RequesterID, f.AddresseeID)
	return nil
}

// NormalizePair orders a user pair so (a,b) and (b,a) map to the same key.
func NormalizePair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the user on the far side of the edge from the given user.
func (f *Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// Involves reports whether the edge connects the given pair, in either direction.
func (f *Friendship) Involves(a, b uint) bool {
	return (f.RequesterID == a && f.AddresseeID == b) || (f.RequesterID == b && f.AddresseeID == a)
}
