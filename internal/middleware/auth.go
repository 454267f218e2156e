package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

const principalKey = "principal"

// AccountLookup is the single store call the gate needs.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (models.Account, error)
}

// Authenticate resolves the bearer token to a live account. A missing
// token is 401; an invalid, expired or orphaned token (account deleted
// since issuance) is 403. On success only the {id, role} principal is
// attached downstream, never the profile or credential.
func Authenticate(codec *security.TokenCodec, accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		principal, err := codec.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, security.ErrNoSecret) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), principal.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(principalKey, models.Principal{ID: account.ID, Role: account.Role})
		c.Next()
	}
}

// PrincipalFrom returns the identity Authenticate attached.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := v.(models.Principal)
	return principal, ok
}
