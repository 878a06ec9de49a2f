package models

import "time"

type RequestStatus int16

const (
	RequestPending  RequestStatus = 1
	RequestAccepted RequestStatus = 2
	RequestRejected RequestStatus = 3
)

// String returns the human readable label used in API responses.
func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "Pending"
	case RequestAccepted:
		return "Accepted"
	case RequestRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

type FriendRequest struct {
	ID         int64         `db:"id" json:"id"`
	SenderID   int64         `db:"sender_id" json:"sender_id"`
	ReceiverID int64         `db:"receiver_id" json:"receiver_id"`
	Status     RequestStatus `db:"status" json:"status"`
	Timestamps
}

// FriendRequestDetail is a request together with both parties' public profiles.
type FriendRequestDetail struct {
	FriendRequest
	Sender   PublicUser
	Receiver PublicUser
}

// PendingRequest is an incoming pending request annotated with the sender profile.
type PendingRequest struct {
	ID        int64         `db:"id"`
	Status    RequestStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
	Sender    PublicUser    `db:"sender"`
}

// Friendship is one directed row standing for an undirected relationship.
type Friendship struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	FriendID int64 `db:"friend_id" json:"friend_id"`
	Timestamps
}

// Other returns the member of the edge that is not userID.
func (f Friendship) Other(userID int64) int64 {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}

// Involves reports whether the edge connects a and b in either direction.
func (f Friendship) Involves(a, b int64) bool {
	return (f.UserID == a && f.FriendID == b) || (f.UserID == b && f.FriendID == a)
}
