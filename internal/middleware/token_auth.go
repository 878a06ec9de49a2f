package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/services"
)

const (
	ContextUserID = "userID"
	ContextActor  = "actor"
)

// TokenAuthenticator resolves an opaque token key to its user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, key string) (*models.User, error)
}

var authSchemes = []string{"token", "bearer"}

// TokenAuth rejects requests without a valid "Token <key>" or "Bearer <key>"
// Authorization header and stores the caller as an Actor.
func TokenAuth(tokens TokenAuthenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := parseAuthorization(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Authentication credentials were not provided.")
			return
		}

		user, err := tokens.Authenticate(c.Request.Context(), key)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				logger.FromContext(c.Request.Context(), log).Error("token lookup failed", zap.Error(err))
			}
			unauthorized(c, "Invalid token.")
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextActor, services.ActorFromUser(user))
		c.Next()
	}
}

func parseAuthorization(header string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	for _, s := range authSchemes {
		if strings.EqualFold(scheme, s) {
			return key, true
		}
	}
	return "", false
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Token")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// ActorFrom returns the caller stored by TokenAuth.
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}
