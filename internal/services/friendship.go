package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

func (a Action) status() (models.RequestStatus, bool) {
	switch a {
	case ActionAccept:
		return models.RequestAccepted, true
	case ActionReject:
		return models.RequestRejected, true
	}
	return 0, false
}

// RateLimit caps how many requests one sender may create per sliding window.
type RateLimit struct {
	Max    int
	Window time.Duration
}

func DefaultRateLimit() RateLimit {
	return RateLimit{Max: 3, Window: time.Minute}
}

type FriendshipService struct {
	friends repositories.FriendRepository
	users   repositories.UserRepository
	limit   RateLimit
	log     *zap.Logger
	now     func() time.Time
}

func NewFriendshipService(friends repositories.FriendRepository, users repositories.UserRepository, limit RateLimit, log *zap.Logger) *FriendshipService {
	if limit.Max <= 0 || limit.Window <= 0 {
		limit = DefaultRateLimit()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FriendshipService{friends: friends, users: users, limit: limit, log: log, now: time.Now}
}

func (s *FriendshipService) Limit() RateLimit { return s.limit }

// SubmitRequest creates a pending request from actor to receiverID. Checks run
// in order: receiver exists, rate limit, self request, pending duplicate,
// existing friendship. Only the actor-to-receiver direction is checked for a
// pending duplicate.
func (s *FriendshipService) SubmitRequest(ctx context.Context, actor Actor, receiverID int64, now time.Time) (*models.FriendRequestDetail, error) {
	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fieldError("receiver",
				fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", receiverID), ErrReceiverNotFound)
		}
		return nil, fmt.Errorf("lookup receiver: %w", err)
	}

	var created *models.FriendRequest
	err = s.friends.WithinTx(ctx, func(tx repositories.FriendTx) error {
		if err := tx.LockSender(ctx, actor.UserID); err != nil {
			return fmt.Errorf("lock sender: %w", err)
		}

		sent, err := tx.CountSentSince(ctx, actor.UserID, now.Add(-s.limit.Window))
		if err != nil {
			return fmt.Errorf("count recent requests: %w", err)
		}
		if sent >= s.limit.Max {
			return ErrRateLimited
		}
		if actor.UserID == receiverID {
			return ErrSelfRequest
		}

		switch _, err := tx.FindPendingBetween(ctx, actor.UserID, receiverID); {
		case err == nil:
			return ErrDuplicatePending
		case !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("find pending request: %w", err)
		}
		switch _, err := tx.FindEdgeBetween(ctx, actor.UserID, receiverID); {
		case err == nil:
			return ErrAlreadyFriends
		case !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("find friendship: %w", err)
		}

		created, err = tx.CreateRequest(ctx, &models.FriendRequest{
			SenderID:   actor.UserID,
			ReceiverID: receiverID,
			Status:     models.RequestPending,
			Timestamps: models.NewTimestamps(now.UTC()),
		})
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicatePending
			}
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("friend request created",
		zap.Int64("request_id", created.ID),
		zap.Int64("sender_id", created.SenderID),
		zap.Int64("receiver_id", created.ReceiverID),
	)
	return &models.FriendRequestDetail{
		FriendRequest: *created,
		Sender:        actor.Public(),
		Receiver:      receiver.Public(),
	}, nil
}

// Decide accepts or rejects a pending request addressed to actor. Accepting
// records the sender-to-receiver friendship in the same transaction.
func (s *FriendshipService) Decide(ctx context.Context, actor Actor, requestID int64, action Action) (*models.FriendRequest, error) {
	status, ok := action.status()
	if !ok {
		return nil, fieldError("action", fmt.Sprintf("%q is not a valid choice.", string(action)), ErrInvalidAction)
	}

	now := s.now().UTC()
	var decided *models.FriendRequest
	err := s.friends.WithinTx(ctx, func(tx repositories.FriendTx) error {
		req, err := tx.ClaimPending(ctx, requestID, actor.UserID, status, now)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrRequestNotEligible
			}
			return fmt.Errorf("claim request: %w", err)
		}

		if status == models.RequestAccepted {
			_, err := tx.CreateFriendship(ctx, &models.Friendship{
				UserID:     req.SenderID,
				FriendID:   req.ReceiverID,
				Timestamps: models.NewTimestamps(now),
			})
			if err != nil {
				return fmt.Errorf("create friendship: %w", err)
			}
		}
		decided = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("friend request decided",
		zap.Int64("request_id", decided.ID),
		zap.String("status", decided.Status.String()),
	)
	return decided, nil
}

func (s *FriendshipService) ListFriends(ctx context.Context, actor Actor, page models.Page) ([]models.PublicUser, int64, error) {
	friends, total, err := s.friends.ListFriends(ctx, actor.UserID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list friends: %w", err)
	}
	return friends, total, nil
}

func (s *FriendshipService) ListPendingIncoming(ctx context.Context, actor Actor, page models.Page) ([]models.PendingRequest, int64, error) {
	reqs, total, err := s.friends.ListPendingIncoming(ctx, actor.UserID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending requests: %w", err)
	}
	return reqs, total, nil
}

func (s *FriendshipService) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	if userID == otherID {
		return false, nil
	}
	return s.friends.AreFriends(ctx, userID, otherID)
}
