package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/services"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/user", handler.Register)
	r.POST("/login", handler.Login)
	r.GET("/search", authenticated(testActor), handler.Search)
	return r
}

func newUserHandler() (*UserHandler, *mocks.MockUserDirectory, *mocks.MockTokens) {
	users := new(mocks.MockUserDirectory)
	tokens := new(mocks.MockTokens)
	return NewUserHandler(users, tokens, NewPaginator(10), nil, nil), users, tokens
}

func TestRegisterReturnsUserAndToken(t *testing.T) {
	handler, users, tokens := newUserHandler()
	router := setupUserRouter(handler)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	users.On("Register", mock.Anything, services.RegisterInput{
		Email: "ann@example.com", Name: "Ann", Password: "Secret123",
	}).Return(&models.User{
		ID: 5, Email: "ann@example.com", Name: "Ann", Password: "hashed",
		Timestamps: models.NewTimestamps(created),
	}, nil).Once()
	tokens.On("IssueOrRotate", mock.Anything, int64(5)).Return("k3y", nil).Once()

	rec := doJSON(router, http.MethodPost, "/user", `{"email":"ann@example.com","name":"Ann","password":"Secret123"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 5, body["id"])
	assert.Equal(t, "ann@example.com", body["email"])
	assert.Equal(t, "k3y", body["token"])
	assert.Equal(t, "2024-03-01T12:00:00Z", body["created_at"])
	assert.NotContains(t, body, "password")
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegisterValidationErrors(t *testing.T) {
	handler, users, tokens := newUserHandler()
	router := setupUserRouter(handler)

	verr := &services.ValidationError{}
	verr.Add("password", "missing_digit", services.ErrWeakPassword)
	verr.Add("email", "user with this email already exists.", services.ErrDuplicateEmail)
	users.On("Register", mock.Anything, mock.Anything).Return(nil, verr).Once()

	rec := doJSON(router, http.MethodPost, "/user", `{"email":"ann@example.com","name":"Ann","password":"SecretPass"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"password":["missing_digit"],"email":["user with this email already exists."]}`, rec.Body.String())
	tokens.AssertNotCalled(t, "IssueOrRotate", mock.Anything, mock.Anything)
}

func TestRegisterMalformedJSON(t *testing.T) {
	handler, _, _ := newUserHandler()
	router := setupUserRouter(handler)

	rec := doJSON(router, http.MethodPost, "/user", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAccepted(t *testing.T) {
	handler, users, tokens := newUserHandler()
	router := setupUserRouter(handler)

	users.On("Authenticate", mock.Anything, "ann@example.com", "Secret123").
		Return(&models.User{ID: 5, Email: "ann@example.com", Name: "Ann"}, nil).Once()
	tokens.On("IssueOrRotate", mock.Anything, int64(5)).Return("fresh", nil).Once()

	rec := doJSON(router, http.MethodPost, "/login", `{"email":"ann@example.com","password":"Secret123"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "fresh", decode(t, rec)["token"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, users, _ := newUserHandler()
	router := setupUserRouter(handler)

	users.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, services.ErrInvalidCredentials)

	rec := doJSON(router, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":["Invalid Credentials"]}`, rec.Body.String())
}

func TestLoginInternalError(t *testing.T) {
	handler, users, _ := newUserHandler()
	router := setupUserRouter(handler)

	users.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	rec := doJSON(router, http.MethodPost, "/login", `{"email":"ann@example.com","password":"x"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestSearchPaginates(t *testing.T) {
	handler, users, _ := newUserHandler()
	router := setupUserRouter(handler)

	results := []models.PublicUser{{ID: 9, Name: "Amy", Email: "amy@example.com"}}
	users.On("Search", mock.Anything, testActor, "am", models.Page{Number: 2, Size: 10}).
		Return(results, int64(25), nil).Once()

	rec := doJSON(router, http.MethodGet, "/search?q=am&page=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"count": 25,
		"next": "http://example.com/search?page=3&q=am",
		"previous": "http://example.com/search?q=am",
		"results": [{"id": 9, "name": "Amy", "email": "amy@example.com"}]
	}`, rec.Body.String())
}

func TestSearchInvalidPage(t *testing.T) {
	handler, users, _ := newUserHandler()
	router := setupUserRouter(handler)

	rec := doJSON(router, http.MethodGet, "/search?q=am&page=abc", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid page."}`, rec.Body.String())

	users.On("Search", mock.Anything, testActor, "am", models.Page{Number: 4, Size: 10}).
		Return([]models.PublicUser{}, int64(25), nil).Once()
	rec = doJSON(router, http.MethodGet, "/search?q=am&page=4", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEmptyFirstPage(t *testing.T) {
	handler, users, _ := newUserHandler()
	router := setupUserRouter(handler)

	users.On("Search", mock.Anything, testActor, "zz", models.Page{Number: 1, Size: 10}).
		Return([]models.PublicUser{}, int64(0), nil).Once()

	rec := doJSON(router, http.MethodGet, "/search?q=zz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"next":null,"previous":null,"results":[]}`, rec.Body.String())
}
