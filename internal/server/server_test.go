package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/dailydebate/internal/bootstrap"
	"anoa.com/dailydebate/internal/config"
	"anoa.com/dailydebate/internal/entity"
	"anoa.com/dailydebate/internal/testutil"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	t   *testing.T
	db  *gorm.DB
	cal *calendar.Fixed
	h   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	require.NoError(t, bootstrap.SeedRoles(db))
	require.NoError(t, bootstrap.SeedAdminUser(db, "admin@example.com", "password123"))

	cfg := &config.Config{
		AppEnv:          "development",
		AllowedOrigins:  "http://localhost:4200",
		JWTSecret:       "secret",
		JWTTTL:          time.Hour,
		Timezone:        calendar.DefaultZone,
		RolloverCron:    "0 0 * * *",
		RolloverLockTTL: time.Minute,
		ResultsCacheTTL: time.Hour,
	}
	cal := &calendar.Fixed{Date: calendar.Date(2025, 3, 6)}

	srv, err := NewServer(cfg, db, nil, cal, zerolog.Nop())
	require.NoError(t, err)
	return &harness{t: t, db: db, cal: cal, h: srv.Handler()}
}

func (h *harness) do(method, path, body, token, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ip == "" {
		ip = "10.0.0.1"
	}
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	h.h.ServeHTTP(w, req)
	return w
}

func (h *harness) token(path, body, ip string) string {
	w := h.do(http.MethodPost, path, body, "", ip)
	require.Contains(h.t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())

	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(h.t, res.AccessToken)
	return res.AccessToken
}

func TestDailyDebateFlow(t *testing.T) {
	h := newHarness(t)
	day1 := calendar.Date(2025, 3, 6)
	q1 := testutil.SeedQuestion(t, h.db, day1, entity.QuestionScheduled)
	q2 := testutil.SeedQuestion(t, h.db, day1.AddDate(0, 0, 1), entity.QuestionScheduled)

	w := h.do(http.MethodGet, "/api/debate/question/active", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"id":%d`, q1.ID))
	assert.Contains(t, w.Body.String(), `"status":"active"`)

	alice := h.token("/api/user/register", `{"email":"alice@example.com","password":"password123","display_name":"Alice"}`, "1.2.3.4")

	answerPath := fmt.Sprintf("/api/debate/question/%d/answer", q1.ID)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, answerPath, `{"side":"A","body":"Of course"}`, alice, "1.2.3.4").Code)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, answerPath, `{"side":"B","body":"Never"}`, "", "5.6.7.8").Code)

	// Bob answered anonymously before signing up from the same address.
	bob := h.token("/api/user/register", `{"email":"bob@example.com","password":"password123","display_name":"Bob"}`, "5.6.7.8")

	w = h.do(http.MethodGet, fmt.Sprintf("/api/debate/question/%d/my-answer", q1.ID), "", bob, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"side":"B"`)

	var aliceAnswer entity.Answer
	require.NoError(t, h.db.Where("question_id = ? AND side = ?", q1.ID, entity.SideA).First(&aliceAnswer).Error)
	likePath := fmt.Sprintf("/api/debate/answers/%d/like", aliceAnswer.ID)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, likePath, "", "", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, likePath, "", bob, "").Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/debate/question/%d/results", q1.ID), "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = h.do(http.MethodGet, "/api/user/me", "", alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"streak_days":1`)
	assert.Contains(t, w.Body.String(), `"total_xp":5`)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/admin/rollover", "", alice, "").Code)

	h.cal.Date = day1.AddDate(0, 0, 1)
	admin := h.token("/api/user/login", `{"email":"admin@example.com","password":"password123"}`, "")

	w = h.do(http.MethodPost, "/api/admin/rollover", "", admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"outcome":"activated"`)
	assert.Contains(t, w.Body.String(), `"majority_side":"A"`)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"id":%d`, q2.ID))

	w = h.do(http.MethodGet, fmt.Sprintf("/api/debate/question/%d/influence", q1.ID), "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display_name":"Alice"`)
	assert.Contains(t, w.Body.String(), `"rank_position":1`)

	w = h.do(http.MethodGet, "/api/user/me", "", alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"power_majority_hits":1`)
	assert.Contains(t, w.Body.String(), `"power_pct":100`)

	w = h.do(http.MethodGet, "/api/debate/leaderboard?by=influence", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display_name":"Alice","position":1`)

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, answerPath, `{"side":"A","body":"late"}`, "", "9.9.9.9").Code)
}

func TestAdminCreatesQuestion(t *testing.T) {
	h := newHarness(t)
	admin := h.token("/api/user/login", `{"email":"admin@example.com","password":"password123"}`, "")

	body := `{"text":"Cats or dogs?","option_a":"Cats","option_b":"Dogs"}`
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/questions", body, "", "").Code)

	w := h.do(http.MethodPost, "/api/questions", body, admin, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"published_date":"2025-03-07"`)
}

func TestMetricsAndHealth(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/metrics", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = h.do(http.MethodGet, "/api/debate/stats", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_users":1`)

	w = h.do(http.MethodGet, "/api/debate/ws", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
