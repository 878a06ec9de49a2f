package handlers

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/metrics"
	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

type FriendshipEngine interface {
	SubmitRequest(ctx context.Context, actor services.Actor, receiverID int64, now time.Time) (*models.FriendRequestDetail, error)
	Decide(ctx context.Context, actor services.Actor, requestID int64, action services.Action) (*models.FriendRequest, error)
	ListFriends(ctx context.Context, actor services.Actor, page models.Page) ([]models.PublicUser, int64, error)
	ListPendingIncoming(ctx context.Context, actor services.Actor, page models.Page) ([]models.PendingRequest, int64, error)
}

type FriendHandler struct {
	friends FriendshipEngine
	pager   Paginator
	audit   auditor
	log     *zap.Logger
	now     func() time.Time
}

func NewFriendHandler(friends FriendshipEngine, pager Paginator, audit *telemetry.AuditEmitter, log *zap.Logger) *FriendHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FriendHandler{friends: friends, pager: pager, audit: auditor{audit}, log: log, now: time.Now}
}

type sendRequestBody struct {
	Receiver *int64 `json:"receiver" form:"receiver" binding:"required"`
}

type decideBody struct {
	Action string `json:"action" form:"action" binding:"required,oneof=accept reject"`
}

type friendRequestResponse struct {
	ID           int64             `json:"id"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SenderData   models.PublicUser `json:"sender_data"`
	ReceiverData models.PublicUser `json:"receiver_data"`
}

type pendingRequestResponse struct {
	ID         int64             `json:"id"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SenderData models.PublicUser `json:"sender_data"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	var body sendRequestBody
	if err := c.ShouldBind(&body); err != nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		respondBindError(c, err)
		return
	}

	req, err := h.friends.SubmitRequest(c.Request.Context(), actor, *body.Receiver, h.now())
	if err != nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		var rule *services.RuleViolation
		if errors.As(err, &rule) {
			metrics.IncFriendViolation(rule.Code)
		}
		h.audit.record(c, &actor.UserID, "friend_request.send", err, "")
		respondError(c, h.log, err)
		return
	}

	metrics.IncFriendRequest(metrics.StatusSuccess)
	h.audit.record(c, &actor.UserID, "friend_request.send", nil,
		fmt.Sprintf("Friend request sent to '%d'", req.ReceiverID))
	c.JSON(nethttp.StatusCreated, friendRequestResponse{
		ID:           req.ID,
		Status:       req.Status.String(),
		CreatedAt:    req.CreatedAt,
		SenderData:   req.Sender,
		ReceiverData: req.Receiver,
	})
}

func (h *FriendHandler) Decide(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(nethttp.StatusNotFound, gin.H{"Error": notEligibleMessage})
		return
	}

	var body decideBody
	if err := c.ShouldBind(&body); err != nil {
		respondBindError(c, err)
		return
	}

	action := services.Action(body.Action)
	inc := metrics.IncFriendReject
	if action == services.ActionAccept {
		inc = metrics.IncFriendAccept
	}

	if _, err := h.friends.Decide(c.Request.Context(), actor, requestID, action); err != nil {
		inc(metrics.StatusFailed)
		h.audit.record(c, &actor.UserID, "friend_request."+body.Action, err, "")
		respondError(c, h.log, err)
		return
	}

	inc(metrics.StatusSuccess)
	h.audit.record(c, &actor.UserID, "friend_request."+body.Action, nil,
		fmt.Sprintf("Friend request '%d' %sed", requestID, body.Action))
	c.Status(nethttp.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	page, ok := h.pager.Page(c)
	if !ok {
		return
	}

	friends, total, err := h.friends.ListFriends(c.Request.Context(), actor, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.pager.Respond(c, page, total, friends)
}

func (h *FriendHandler) ListPending(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	page, ok := h.pager.Page(c)
	if !ok {
		return
	}

	reqs, total, err := h.friends.ListPendingIncoming(c.Request.Context(), actor, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := make([]pendingRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		resp = append(resp, pendingRequestResponse{
			ID:         r.ID,
			Status:     r.Status.String(),
			CreatedAt:  r.CreatedAt,
			SenderData: r.Sender,
		})
	}
	h.pager.Respond(c, page, total, resp)
}
