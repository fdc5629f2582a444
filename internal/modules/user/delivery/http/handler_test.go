package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/dailydebate/internal/bootstrap"
	identityRepo "anoa.com/dailydebate/internal/modules/identity/repository"
	identityService "anoa.com/dailydebate/internal/modules/identity/service"
	userRepo "anoa.com/dailydebate/internal/modules/user/repository"
	userService "anoa.com/dailydebate/internal/modules/user/service"
	"anoa.com/dailydebate/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	require.NoError(t, bootstrap.SeedRoles(db))
	svc := userService.NewAuthService(
		userRepo.NewUserRepository(db),
		identityService.NewIdentityService(identityRepo.NewIdentityRepository(db), zerolog.Nop()),
		"secret",
		time.Hour,
		zerolog.Nop(),
	)
	h := NewAuthHandler(svc)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/me", h.Me)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	r := newRouter(t)

	w := post(r, "/api/auth/register", `{"email":"dana@example.com","password":"password123","display_name":"Dana"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = post(r, "/api/auth/register", `{"email":"dana@example.com","password":"password123","display_name":"Dana"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(r, "/api/auth/register", `{"email":"not-an-email","password":"short","display_name":"Dana"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email must be a valid email")

	w = post(r, "/api/auth/login", `{"email":"dana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(r, "/api/auth/login", `{"email":"dana@example.com","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresUser(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
