package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

// memStore is an in-memory stand-in for the Postgres repositories. WithinTx
// runs one transaction at a time against a copy and swaps it in on success.
type memStore struct {
	mu sync.Mutex

	users    map[int64]*models.User
	tokens   map[string]int64
	requests []models.FriendRequest
	edges    []models.Friendship
	nextID   int64

	failEdge error
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*models.User{}, tokens: map[string]int64{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(id int64, name, email string) models.PublicUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &models.User{ID: id, Name: name, Email: email}
	if id > m.nextID {
		m.nextID = id
	}
	return m.users[id].Public()
}

func (m *memStore) requestByID(id int64) (models.FriendRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			return r, true
		}
	}
	return models.FriendRequest{}, false
}

func (m *memStore) edgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// UserRepository

func (m *memStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, repositories.ErrDuplicateKey
		}
	}
	created := *u
	created.ID = m.id()
	m.users[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) Search(_ context.Context, query string, excludeID int64, page models.Page) ([]models.PublicUser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.PublicUser
	q := strings.ToLower(query)
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if strings.EqualFold(u.Email, query) || strings.Contains(strings.ToLower(u.Name), q) {
			matched = append(matched, u.Public())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, page), int64(len(matched)), nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

// TokenRepository

type memTokens struct{ *memStore }

func (t memTokens) Replace(_ context.Context, token *models.Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, uid := range t.tokens {
		if uid == token.UserID {
			delete(t.tokens, key)
		}
	}
	t.tokens[token.Key] = token.UserID
	return nil
}

func (t memTokens) GetUserByKey(_ context.Context, key string) (*models.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	uid, ok := t.tokens[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *t.users[uid]
	return &out, nil
}

// FriendRepository

type memFriends struct{ *memStore }

func (f memFriends) WithinTx(_ context.Context, fn func(repositories.FriendTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &memTx{
		store:    f.memStore,
		requests: append([]models.FriendRequest(nil), f.requests...),
		edges:    append([]models.Friendship(nil), f.edges...),
		nextID:   f.nextID,
	}
	if err := fn(tx); err != nil {
		return err
	}
	f.requests, f.edges, f.nextID = tx.requests, tx.edges, tx.nextID
	return nil
}

func (f memFriends) ListFriends(_ context.Context, userID int64, page models.Page) ([]models.PublicUser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := map[int64]int64{}
	for _, e := range f.edges {
		if e.UserID != userID && e.FriendID != userID {
			continue
		}
		other := e.Other(userID)
		if e.ID > latest[other] {
			latest[other] = e.ID
		}
	}
	others := make([]int64, 0, len(latest))
	for other := range latest {
		others = append(others, other)
	}
	sort.Slice(others, func(i, j int) bool { return latest[others[i]] > latest[others[j]] })

	friends := make([]models.PublicUser, 0, len(others))
	for _, other := range others {
		friends = append(friends, f.users[other].Public())
	}
	return paginate(friends, page), int64(len(friends)), nil
}

func (f memFriends) ListPendingIncoming(_ context.Context, userID int64, page models.Page) ([]models.PendingRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []models.PendingRequest
	for i := len(f.requests) - 1; i >= 0; i-- {
		r := f.requests[i]
		if r.ReceiverID == userID && r.Status == models.RequestPending {
			pending = append(pending, models.PendingRequest{
				ID: r.ID, Status: r.Status, CreatedAt: r.CreatedAt, Sender: f.users[r.SenderID].Public(),
			})
		}
	}
	return paginate(pending, page), int64(len(pending)), nil
}

func (f memFriends) AreFriends(_ context.Context, userID, otherID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if e.Involves(userID, otherID) {
			return true, nil
		}
	}
	return false, nil
}

type memTx struct {
	store    *memStore
	requests []models.FriendRequest
	edges    []models.Friendship
	nextID   int64
}

func (t *memTx) LockSender(context.Context, int64) error { return nil }

func (t *memTx) CountSentSince(_ context.Context, senderID int64, since time.Time) (int, error) {
	n := 0
	for _, r := range t.requests {
		if r.SenderID == senderID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) FindPendingBetween(_ context.Context, senderID, receiverID int64) (*models.FriendRequest, error) {
	for _, r := range t.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID && r.Status == models.RequestPending {
			out := r
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (t *memTx) FindEdgeBetween(_ context.Context, userID, otherID int64) (*models.Friendship, error) {
	for _, e := range t.edges {
		if e.Involves(userID, otherID) {
			out := e
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (t *memTx) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	t.nextID++
	created := *req
	created.ID = t.nextID
	t.requests = append(t.requests, created)
	return &created, nil
}

func (t *memTx) ClaimPending(_ context.Context, requestID, receiverID int64, status models.RequestStatus, at time.Time) (*models.FriendRequest, error) {
	for i := range t.requests {
		r := &t.requests[i]
		if r.ID == requestID && r.ReceiverID == receiverID && r.Status == models.RequestPending {
			r.Status = status
			r.UpdatedAt = at
			out := *r
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (t *memTx) CreateFriendship(_ context.Context, edge *models.Friendship) (*models.Friendship, error) {
	if t.store.failEdge != nil {
		return nil, t.store.failEdge
	}
	t.nextID++
	created := *edge
	created.ID = t.nextID
	t.edges = append(t.edges, created)
	return &created, nil
}

func paginate[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
