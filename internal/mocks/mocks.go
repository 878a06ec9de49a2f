package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/rabbitmq"
	"social-service/internal/services"
)

// MockUserDirectory mocks the user service as seen by handlers.
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserDirectory) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserDirectory) Search(ctx context.Context, actor services.Actor, query string, page models.Page) ([]models.PublicUser, int64, error) {
	args := m.Called(ctx, actor, query, page)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, int64Arg(args, 1), args.Error(2)
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

// MockTokens mocks token issuing and lookup.
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) IssueOrRotate(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Authenticate(ctx context.Context, key string) (*models.User, error) {
	args := m.Called(ctx, key)
	return userArg(args, 0), args.Error(1)
}

// MockFriendshipEngine mocks the friendship service.
type MockFriendshipEngine struct {
	mock.Mock
}

func (m *MockFriendshipEngine) SubmitRequest(ctx context.Context, actor services.Actor, receiverID int64, now time.Time) (*models.FriendRequestDetail, error) {
	args := m.Called(ctx, actor, receiverID, now)
	var req *models.FriendRequestDetail
	if val := args.Get(0); val != nil {
		req = val.(*models.FriendRequestDetail)
	}
	return req, args.Error(1)
}

func (m *MockFriendshipEngine) Decide(ctx context.Context, actor services.Actor, requestID int64, action services.Action) (*models.FriendRequest, error) {
	args := m.Called(ctx, actor, requestID, action)
	var req *models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(*models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *MockFriendshipEngine) ListFriends(ctx context.Context, actor services.Actor, page models.Page) ([]models.PublicUser, int64, error) {
	args := m.Called(ctx, actor, page)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, int64Arg(args, 1), args.Error(2)
}

func (m *MockFriendshipEngine) ListPendingIncoming(ctx context.Context, actor services.Actor, page models.Page) ([]models.PendingRequest, int64, error) {
	args := m.Called(ctx, actor, page)
	var reqs []models.PendingRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.PendingRequest)
	}
	return reqs, int64Arg(args, 1), args.Error(2)
}

func (m *MockFriendshipEngine) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *models.User {
	if val := args.Get(i); val != nil {
		return val.(*models.User)
	}
	return nil
}

func int64Arg(args mock.Arguments, i int) int64 {
	switch v := args.Get(i).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Compile-time assertions
var _ interface {
	Register(context.Context, services.RegisterInput) (*models.User, error)
	Authenticate(context.Context, string, string) (*models.User, error)
	Search(context.Context, services.Actor, string, models.Page) ([]models.PublicUser, int64, error)
} = (*MockUserDirectory)(nil)

var _ interface {
	IssueOrRotate(context.Context, int64) (string, error)
	Authenticate(context.Context, string) (*models.User, error)
} = (*MockTokens)(nil)

var _ interface {
	SubmitRequest(context.Context, services.Actor, int64, time.Time) (*models.FriendRequestDetail, error)
	Decide(context.Context, services.Actor, int64, services.Action) (*models.FriendRequest, error)
	ListFriends(context.Context, services.Actor, models.Page) ([]models.PublicUser, int64, error)
	ListPendingIncoming(context.Context, services.Actor, models.Page) ([]models.PendingRequest, int64, error)
	AreFriends(context.Context, int64, int64) (bool, error)
} = (*MockFriendshipEngine)(nil)

// MockPublisher mocks RabbitMQ publisher behavior for telemetry.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ rabbitmq.Publisher = (*MockPublisher)(nil)
