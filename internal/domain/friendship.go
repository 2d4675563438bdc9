package domain

import "circleup/backend/internal/models"

// RelationStatus is the friendship state between two users as seen from one
// side of the edge.
type RelationStatus string

const (
	RelationNone            RelationStatus = "none"
	RelationPendingSent     RelationStatus = "pending_sent"
	RelationPendingReceived RelationStatus = "pending_received"
	RelationFriends         RelationStatus = "friends"
)

// RelationStatusFor derives the viewer-relative status from the single edge
// row between viewer and subject. A nil edge means no relationship exists.
func RelationStatusFor(viewerID uint, edge *models.Friendship) RelationStatus {
	if edge == nil {
		return RelationNone
	}
	switch edge.Status {
	case models.StatusRejected:
		// A rejected edge reads as "none" to both sides; the row only
		// survives so a re-send can reuse it.
		return RelationNone
	case models.StatusAccepted:
		return RelationFriends
	case models.StatusPending:
		if edge.RequesterID == viewerID {
			return RelationPendingSent
		}
		return RelationPendingReceived
	}
	return RelationNone
}

// RequestDecision is the transition the ledger must apply for a friend request.
type RequestDecision int

const (
	// DecisionCreate inserts a fresh pending edge.
	DecisionCreate RequestDecision = iota
	// DecisionAutoAccept flips the counterpart's pending edge to accepted:
	// both sides asked, whichever request lands second completes the pair.
	DecisionAutoAccept
	// DecisionResend reuses a rejected row, flipping it back to pending
	// with the new requester.
	DecisionResend
)

// DecideRequest encodes the friendship request state machine. It inspects
// the current edge between the pair (nil when none exists) and returns the
// transition to apply, or the typed error the caller must see.
func DecideRequest(fromID uint, edge *models.Friendship) (RequestDecision, error) {
	if edge == nil {
		return DecisionCreate, nil
	}
	switch edge.Status {
	case models.StatusAccepted:
		return 0, ErrAlreadyFriends
	case models.StatusPending:
		if edge.RequesterID == fromID {
			return 0, ErrRequestSent
		}
		return DecisionAutoAccept, nil
	case models.StatusRejected:
		return DecisionResend, nil
	}
	return 0, ErrValidation
}
