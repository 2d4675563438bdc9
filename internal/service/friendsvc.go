package service

import (
	"context"
	"errors"
	"time"

	"circleup/backend/internal/domain"
	"circleup/backend/internal/models"
)

// FriendshipStore is the persistence contract for the friendship ledger.
// Every mutating method is individually atomic; AutoAccept covers the one
// transition that touches more than one row.
type FriendshipStore interface {
	// FindEdge returns the single edge between a pair, in either
	// direction, or domain.ErrNotFound.
	FindEdge(ctx context.Context, a, b uint) (*models.Friendship, error)
	FindEdgeByID(ctx context.Context, id uint) (*models.Friendship, error)
	// Create inserts a fresh pending edge. A concurrent duplicate for the
	// same pair surfaces as domain.ErrRequestSent via the pair unique index.
	Create(ctx context.Context, edge *models.Friendship) error
	// AutoAccept flips a pending edge to accepted and clears any stale
	// reverse-direction row for the pair in one transaction. Returns
	// domain.ErrAlreadyProcessed if the edge is no longer pending.
	AutoAccept(ctx context.Context, edgeID uint, when time.Time) error
	// Resend reuses a rejected row: status back to pending with a new
	// requester. Returns domain.ErrAlreadyProcessed if the row moved on.
	Resend(ctx context.Context, edgeID, requesterID uint, when time.Time) error
	// Resolve transitions a pending edge to accepted or rejected. Returns
	// domain.ErrAlreadyProcessed if the edge is no longer pending.
	Resolve(ctx context.Context, edgeID uint, status models.FriendshipStatus, when time.Time) error
	// Delete removes the edge for a pair outright, any status.
	Delete(ctx context.Context, a, b uint) error
	// FriendIDs returns the ids of all accepted friends of a user.
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	// ListForUser returns every edge touching a user, newest first.
	ListForUser(ctx context.Context, userID uint) ([]models.Friendship, error)
}

// UsersStore is the identity directory lookup the ledgers depend on.
type UsersStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// FriendService owns the friendship edge state machine.
type FriendService struct {
	Users       UsersStore
	Friendships FriendshipStore
	Now         func() time.Time
}

func (s *FriendService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Request sends a friend request from one user to another, applying the
// transition table from domain.DecideRequest. Simultaneous mutual requests
// converge: whichever lands second auto-accepts the first.
func (s *FriendService) Request(ctx context.Context, fromID, toID uint) (domain.RelationStatus, error) {
	if fromID == toID {
		return "", domain.ErrValidation
	}

	target, err := s.Users.GetByID(ctx, toID)
	if err != nil {
		return "", err
	}
	if target.IsDeactivated {
		return "", domain.ErrUserDeactivated
	}

	edge, err := s.Friendships.FindEdge(ctx, fromID, toID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if errors.Is(err, domain.ErrNotFound) {
		edge = nil
	}

	decision, err := domain.DecideRequest(fromID, edge)
	if err != nil {
		return "", err
	}

	switch decision {
	case domain.DecisionAutoAccept:
		if err := s.Friendships.AutoAccept(ctx, edge.ID, s.now()); err != nil {
			return "", err
		}
		return domain.RelationFriends, nil
	case domain.DecisionResend:
		if err := s.Friendships.Resend(ctx, edge.ID, fromID, s.now()); err != nil {
			return "", err
		}
		return domain.RelationPendingSent, nil
	default:
		err := s.Friendships.Create(ctx, &models.Friendship{
			RequesterID: fromID,
			AddresseeID: toID,
			Status:      models.StatusPending,
		})
		if err != nil {
			return "", err
		}
		return domain.RelationPendingSent, nil
	}
}

// Respond accepts or rejects a pending request. Only the addressee may
// respond, and only while the edge is still pending.
func (s *FriendService) Respond(ctx context.Context, actorID, requestID uint, accept bool) error {
	edge, err := s.Friendships.FindEdgeByID(ctx, requestID)
	if err != nil {
		return err
	}
	if edge.AddresseeID != actorID {
		return domain.ErrUnauthorized
	}
	if edge.Status != models.StatusPending {
		return domain.ErrAlreadyProcessed
	}

	status := models.StatusRejected
	if accept {
		status = models.StatusAccepted
	}
	return s.Friendships.Resolve(ctx, edge.ID, status, s.now())
}

// Remove deletes the edge between two users regardless of status. Unlike a
// rejection this clears history entirely, so a later request between the
// pair starts fresh instead of auto-accepting off stale state.
func (s *FriendService) Remove(ctx context.Context, actorID, otherID uint) error {
	return s.Friendships.Delete(ctx, actorID, otherID)
}

// Status derives the viewer-relative relationship status for a pair.
func (s *FriendService) Status(ctx context.Context, viewerID, subjectID uint) (domain.RelationStatus, error) {
	if viewerID == subjectID {
		return domain.RelationNone, nil
	}
	edge, err := s.Friendships.FindEdge(ctx, viewerID, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RelationNone, nil
		}
		return "", err
	}
	return domain.RelationStatusFor(viewerID, edge), nil
}

// FriendIDs returns the accepted-adjacency snapshot used by visibility reads.
func (s *FriendService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.Friendships.FriendIDs(ctx, userID)
}

// Overview groups a user's edges into friends and pending requests by direction.
type Overview struct {
	Friends  []models.Friendship
	Incoming []models.Friendship
	Outgoing []models.Friendship
}

// Overview lists a user's relationships bucketed by state and direction.
// Rejected edges are internal bookkeeping and never surface here.
func (s *FriendService) Overview(ctx context.Context, userID uint) (Overview, error) {
	edges, err := s.Friendships.ListForUser(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	var out Overview
	for _, e := range edges {
		switch e.Status {
		case models.StatusAccepted:
			out.Friends = append(out.Friends, e)
		case models.StatusPending:
			if e.RequesterID == userID {
				out.Outgoing = append(out.Outgoing, e)
			} else {
				out.Incoming = append(out.Incoming, e)
			}
		}
	}
	return out, nil
}
