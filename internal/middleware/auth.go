package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/model"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/httputil"
)

const (
	ContextPrincipal = "principal"
	ContextUserID    = "user_id"
)

// TokenValidator resolves a bearer token into the calling user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.Principal, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the JWT token and sets the principal in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		principal, err := m.tokens.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Set(ContextUserID, principal.UserID)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		principal := CurrentUser(c)
		if principal == nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
			return
		}
		if !allowed[principal.Role] {
			httputil.RespondWithError(c, apperrors.Forbidden("permission denied"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the principal stored by Authenticate, or nil.
func CurrentUser(c *gin.Context) *model.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*model.Principal)
	return p
}
