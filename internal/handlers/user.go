package handlers

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/metrics"
	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

type UserDirectory interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Search(ctx context.Context, actor services.Actor, query string, page models.Page) ([]models.PublicUser, int64, error)
}

type TokenIssuer interface {
	IssueOrRotate(ctx context.Context, userID int64) (string, error)
}

type UserHandler struct {
	users  UserDirectory
	tokens TokenIssuer
	pager  Paginator
	audit  auditor
	log    *zap.Logger
}

func NewUserHandler(users UserDirectory, tokens TokenIssuer, pager Paginator, audit *telemetry.AuditEmitter, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{users: users, tokens: tokens, pager: pager, audit: auditor{audit}, log: log}
}

type registerBody struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type userTokenResponse struct {
	*models.User
	Token string `json:"token"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBind(&body); err != nil {
		metrics.IncRegistration(metrics.StatusFailed)
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Register(ctx, services.RegisterInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		metrics.IncRegistration(metrics.StatusFailed)
		h.audit.record(c, nil, "user.register", err, "registration rejected")
		respondError(c, h.log, err)
		return
	}

	token, err := h.tokens.IssueOrRotate(ctx, user.ID)
	if err != nil {
		metrics.IncRegistration(metrics.StatusFailed)
		respondError(c, h.log, err)
		return
	}

	metrics.IncRegistration(metrics.StatusSuccess)
	h.audit.record(c, &user.ID, "user.register", nil, "User registered")
	c.JSON(nethttp.StatusCreated, userTokenResponse{User: user, Token: token})
}

func (h *UserHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBind(&body); err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Authenticate(ctx, body.Email, body.Password)
	if err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.audit.record(c, nil, "user.login", err, "invalid credentials")
		}
		respondError(c, h.log, err)
		return
	}

	token, err := h.tokens.IssueOrRotate(ctx, user.ID)
	if err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		respondError(c, h.log, err)
		return
	}

	metrics.IncLogin(metrics.StatusSuccess)
	h.audit.record(c, &user.ID, "user.login", nil, "User logged in")
	c.JSON(nethttp.StatusAccepted, userTokenResponse{User: user, Token: token})
}

func (h *UserHandler) Search(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	page, ok := h.pager.Page(c)
	if !ok {
		return
	}

	users, total, err := h.users.Search(c.Request.Context(), actor, c.Query("q"), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.pager.Respond(c, page, total, users)
}
