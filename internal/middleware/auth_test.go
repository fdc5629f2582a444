package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"anoa.com/dailydebate/internal/bootstrap"
	"anoa.com/dailydebate/internal/entity"
	userRepo "anoa.com/dailydebate/internal/modules/user/repository"
	"anoa.com/dailydebate/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newRouter(t *testing.T) (*gin.Engine, uint, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	require.NoError(t, bootstrap.SeedRoles(db))
	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@example.com", "password123"))

	var admin entity.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	member := testutil.SeedUser(t, db, "member")

	m := NewAuthMiddleware(userRepo.NewUserRepository(db), testSecret)
	echo := func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	}

	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/optional", m.OptionalAuth(), echo)
	r.GET("/private", m.RequireAuth(), echo)
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), echo)
	return r, admin.ID, member
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, _, member := newRouter(t)
	sub := strconv.FormatUint(uint64(member), 10)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", signToken(t, sub, -time.Minute)).Code)

	w := get(r, "/private", signToken(t, sub, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"`+sub+`"`)

	w = get(r, "/private?token="+signToken(t, sub, time.Hour), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r, _, member := newRouter(t)
	sub := strconv.FormatUint(uint64(member), 10)

	w := get(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":null`)

	w = get(r, "/optional", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":null`)

	w = get(r, "/optional", signToken(t, sub, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"`+sub+`"`)
}

func TestRequireAdmin(t *testing.T) {
	r, admin, member := newRouter(t)

	w := get(r, "/admin", signToken(t, strconv.FormatUint(uint64(member), 10), time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, "/admin", signToken(t, strconv.FormatUint(uint64(admin), 10), time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/admin", signToken(t, "9999", time.Hour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
