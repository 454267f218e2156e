package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

type lookupFunc func(ctx context.Context, id string) (models.Account, error)

func (f lookupFunc) GetByID(ctx context.Context, id string) (models.Account, error) {
	return f(ctx, id)
}

func newGateRouter(codec *security.TokenCodec, lookup AccountLookup, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/protected")
	group.Use(Authenticate(codec, lookup))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("", func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": principal.ID, "role": string(principal.Role)})
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func accountFor(id string, role models.Role) lookupFunc {
	return func(_ context.Context, got string) (models.Account, error) {
		if got == id {
			return models.Account{ID: id, Role: role}, nil
		}
		return models.Account{}, repository.ErrNotFound
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)
	r := newGateRouter(codec, accountFor("acct-1", models.RolePatient))

	rr := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)
	r := newGateRouter(codec, accountFor("acct-1", models.RolePatient))

	rr := doGet(r, "not-a-jwt")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	expiredCodec := security.NewTokenCodec("test-secret", -time.Minute)
	token, err := expiredCodec.Issue("acct-1", models.RolePatient)
	require.NoError(t, err)

	codec := security.NewTokenCodec("test-secret", time.Hour)
	r := newGateRouter(codec, accountFor("acct-1", models.RolePatient))

	rr := doGet(r, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)
	token, err := codec.Issue("acct-gone", models.RolePatient)
	require.NoError(t, err)

	r := newGateRouter(codec, accountFor("acct-1", models.RolePatient))

	rr := doGet(r, token)
	assert.Equal(t, http.StatusForbidden, rr.Code,
		"a stale token for a deleted account must be rejected")
}

func TestAuthenticateStoreFailure(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)
	token, err := codec.Issue("acct-1", models.RolePatient)
	require.NoError(t, err)

	failing := lookupFunc(func(context.Context, string) (models.Account, error) {
		return models.Account{}, errors.New("connection refused")
	})
	r := newGateRouter(codec, failing)

	rr := doGet(r, token)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)
	token, err := codec.Issue("acct-1", models.RoleDoctor)
	require.NoError(t, err)

	r := newGateRouter(codec, accountFor("acct-1", models.RoleDoctor))

	rr := doGet(r, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "acct-1")
	assert.Contains(t, rr.Body.String(), "DOCTOR")
}

func TestRequireRoles(t *testing.T) {
	codec := security.NewTokenCodec("test-secret", time.Hour)

	token, err := codec.Issue("acct-1", models.RolePatient)
	require.NoError(t, err)

	allowed := newGateRouter(codec, accountFor("acct-1", models.RolePatient),
		models.RolePatient, models.RoleAdmin)
	rr := doGet(allowed, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	denied := newGateRouter(codec, accountFor("acct-1", models.RolePatient),
		models.RoleAdmin, models.RoleSuperAdmin)
	rr = doGet(denied, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRolesWithoutAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bare", RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/bare", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
