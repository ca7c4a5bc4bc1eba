package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// TokenHeader carries the raw signed token on protected requests.
const TokenHeader = "x-access-token"

const userKey = "user"

type userCtxKey struct{}

// Rejection reasons. They are logged and counted; the client always sees 401 Unauthorized.
const (
	ReasonTokenMissing   = "token_missing"
	ReasonTokenMalformed = "token_malformed"
	ReasonTokenInvalid   = "token_invalid"
	ReasonTokenExpired   = "token_expired"
	ReasonUserNotFound   = "user_not_found"
)

var (
	ErrTokenMissing = fmt.Errorf("token missing: %w", domain.ErrUnauthenticated)
	ErrUserNotFound = fmt.Errorf("token user not found: %w", domain.ErrUnauthenticated)
)

type TokenValidator interface {
	Validate(token string) (int64, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Authenticate resolves a raw token to a live user. On rejection it returns a
// non-empty reason; an error with an empty reason is a server-side failure.
func Authenticate(ctx context.Context, tokens TokenValidator, users UserLookup, raw string) (*domain.User, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ReasonTokenMissing, ErrTokenMissing
	}

	userID, err := tokens.Validate(raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			return nil, ReasonTokenExpired, err
		case errors.Is(err, service.ErrTokenMalformed):
			return nil, ReasonTokenMalformed, err
		default:
			return nil, ReasonTokenInvalid, err
		}
	}

	user, err := users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ReasonUserNotFound, ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("resolve token user: %w", err)
	}
	return user, "", nil
}

// Auth rejects requests without a valid token for a live user and exposes the
// user to handlers through CurrentUser.
func Auth(tokens TokenValidator, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, reason, err := Authenticate(ctx, tokens, users, c.GetHeader(TokenHeader))
		if err != nil {
			if reason == "" {
				logger.WithContext(ctx).Error("authentication failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			Reject(c, reason, err)
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// Reject counts and logs an authentication failure and aborts with 401.
func Reject(c *gin.Context, reason string, err error) {
	AuthFailures.WithLabelValues(reason).Inc()
	logger.WithContext(c.Request.Context()).Warn("authentication rejected", "reason", reason, "error", err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}

// SetUser stores the authenticated user in the gin and request contexts.
func SetUser(c *gin.Context, user *domain.User) {
	c.Set(userKey, user)
	c.Set("user_id", user.ID)

	ctx := context.WithValue(c.Request.Context(), userCtxKey{}, user)
	ctx = logger.ContextWith(ctx, "user_id", user.ID)
	c.Request = c.Request.WithContext(ctx)
}

// CurrentUser returns the user authenticated by Auth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// UserFromContext returns the authenticated user stored in a request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*domain.User)
	return u, ok && u != nil
}
