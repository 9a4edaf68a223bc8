package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/halcyonlabel/backend/internal/services"
	"go.uber.org/zap"
)

const (
	ContextUserID    = "userID"
	ContextRequester = "requester"
)

// SessionResolver turns a bearer token into the requesting identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*services.Requester, error)
}

// Auth rejects requests without a valid session and stores the requester in
// the gin context.
func Auth(resolver SessionResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		requester, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
				return
			}
			log.Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(ContextUserID, requester.UserID)
		c.Set(ContextRequester, requester)
		c.Next()
	}
}

// TokenFromQuery copies a ?token= parameter into the Authorization header so
// links opened directly in the browser can authenticate.
func TokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}

// CurrentRequester returns the identity set by Auth, or nil.
func CurrentRequester(c *gin.Context) *services.Requester {
	v, ok := c.Get(ContextRequester)
	if !ok {
		return nil
	}
	r, _ := v.(*services.Requester)
	return r
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
