package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

type FriendRepository interface {
	// WithinTx runs fn in one transaction, committing only if fn returns nil.
	WithinTx(ctx context.Context, fn func(FriendTx) error) error
	ListFriends(ctx context.Context, userID int64, page models.Page) ([]models.PublicUser, int64, error)
	ListPendingIncoming(ctx context.Context, userID int64, page models.Page) ([]models.PendingRequest, int64, error)
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
}

// FriendTx exposes the queries that must observe and mutate friend state atomically.
type FriendTx interface {
	LockSender(ctx context.Context, senderID int64) error
	CountSentSince(ctx context.Context, senderID int64, since time.Time) (int, error)
	FindPendingBetween(ctx context.Context, senderID, receiverID int64) (*models.FriendRequest, error)
	FindEdgeBetween(ctx context.Context, userID, otherID int64) (*models.Friendship, error)
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	ClaimPending(ctx context.Context, requestID, receiverID int64, status models.RequestStatus, at time.Time) (*models.FriendRequest, error)
	CreateFriendship(ctx context.Context, edge *models.Friendship) (*models.Friendship, error)
}

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

const requestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func (r *friendRepository) WithinTx(ctx context.Context, fn func(FriendTx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&friendTx{tx: tx})
	})
}

func (r *friendRepository) ListFriends(ctx context.Context, userID int64, page models.Page) ([]models.PublicUser, int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
SELECT COUNT(DISTINCT CASE WHEN user_id=$1 THEN friend_id ELSE user_id END)
FROM friendships
WHERE user_id=$1 OR friend_id=$1
`, userID)
	if err != nil {
		return nil, 0, wrapDBError(err)
	}

	friends := make([]models.PublicUser, 0, page.Limit())
	err = r.db.SelectContext(ctx, &friends, `
WITH edges AS (
	SELECT CASE WHEN user_id=$1 THEN friend_id ELSE user_id END AS other_id, MAX(id) AS edge_id
	FROM friendships
	WHERE user_id=$1 OR friend_id=$1
	GROUP BY 1
)
SELECT u.id, u.name, u.email
FROM edges e
JOIN users u ON u.id = e.other_id
ORDER BY e.edge_id DESC
LIMIT $2 OFFSET $3
`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, wrapDBError(err)
	}
	return friends, total, nil
}

func (r *friendRepository) ListPendingIncoming(ctx context.Context, userID int64, page models.Page) ([]models.PendingRequest, int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
SELECT COUNT(*) FROM friend_requests WHERE receiver_id=$1 AND status=$2
`, userID, models.RequestPending)
	if err != nil {
		return nil, 0, wrapDBError(err)
	}

	reqs := make([]models.PendingRequest, 0, page.Limit())
	err = r.db.SelectContext(ctx, &reqs, `
SELECT fr.id, fr.status, fr.created_at,
	u.id AS "sender.id", u.name AS "sender.name", u.email AS "sender.email"
FROM friend_requests fr
JOIN users u ON u.id = fr.sender_id
WHERE fr.receiver_id=$1 AND fr.status=$2
ORDER BY fr.id DESC
LIMIT $3 OFFSET $4
`, userID, models.RequestPending, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, wrapDBError(err)
	}
	return reqs, total, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(
SELECT 1 FROM friendships
WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
)
`, userID, otherID)
	return exists, wrapDBError(err)
}

type friendTx struct {
	tx *sqlx.Tx
}

// LockSender serialises every request submission of one sender until the
// transaction ends, so the rate-limit count and duplicate check cannot race.
func (t *friendTx) LockSender(ctx context.Context, senderID int64) error {
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, senderID)
	return wrapDBError(err)
}

func (t *friendTx) CountSentSince(ctx context.Context, senderID int64, since time.Time) (int, error) {
	var count int
	err := t.tx.GetContext(ctx, &count, `
SELECT COUNT(*) FROM friend_requests WHERE sender_id=$1 AND created_at >= $2
`, senderID, since)
	return count, wrapDBError(err)
}

func (t *friendTx) FindPendingBetween(ctx context.Context, senderID, receiverID int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := t.tx.GetContext(ctx, &req, `
SELECT `+requestColumns+`
FROM friend_requests
WHERE sender_id=$1 AND receiver_id=$2 AND status=$3
LIMIT 1
`, senderID, receiverID, models.RequestPending)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &req, nil
}

func (t *friendTx) FindEdgeBetween(ctx context.Context, userID, otherID int64) (*models.Friendship, error) {
	var edge models.Friendship
	err := t.tx.GetContext(ctx, &edge, `
SELECT id, user_id, friend_id, created_at, updated_at
FROM friendships
WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)
ORDER BY id
LIMIT 1
`, userID, otherID)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &edge, nil
}

func (t *friendTx) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	var created models.FriendRequest
	err := t.tx.QueryRowxContext(ctx, `
INSERT INTO friend_requests (sender_id, receiver_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+requestColumns,
		req.SenderID, req.ReceiverID, req.Status, req.CreatedAt, req.UpdatedAt,
	).StructScan(&created)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &created, nil
}

// ClaimPending moves a pending request addressed to receiverID into status.
// It returns ErrNotFound when no such pending request exists.
func (t *friendTx) ClaimPending(ctx context.Context, requestID, receiverID int64, status models.RequestStatus, at time.Time) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := t.tx.QueryRowxContext(ctx, `
UPDATE friend_requests SET status=$3, updated_at=$4
WHERE id=$1 AND receiver_id=$2 AND status=$5
RETURNING `+requestColumns,
		requestID, receiverID, status, at, models.RequestPending,
	).StructScan(&req)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &req, nil
}

func (t *friendTx) CreateFriendship(ctx context.Context, edge *models.Friendship) (*models.Friendship, error) {
	var created models.Friendship
	err := t.tx.QueryRowxContext(ctx, `
INSERT INTO friendships (user_id, friend_id, created_at, updated_at)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, friend_id, created_at, updated_at
`, edge.UserID, edge.FriendID, edge.CreatedAt, edge.UpdatedAt).StructScan(&created)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &created, nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
