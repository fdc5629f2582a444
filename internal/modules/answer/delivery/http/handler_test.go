package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/dailydebate/internal/entity"
	answerRepo "anoa.com/dailydebate/internal/modules/answer/repository"
	answerService "anoa.com/dailydebate/internal/modules/answer/service"
	eventService "anoa.com/dailydebate/internal/modules/event/service"
	streakRepo "anoa.com/dailydebate/internal/modules/streak/repository"
	streakService "anoa.com/dailydebate/internal/modules/streak/service"
	"anoa.com/dailydebate/internal/testutil"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const testUserHeader = "X-Test-User"

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cal := calendar.Fixed{Date: calendar.Date(2025, 3, 6)}
	svc := answerService.NewAnswerService(
		answerRepo.NewAnswerRepository(db),
		streakService.NewStreakService(streakRepo.NewStreakRepository(db), cal, zerolog.Nop()),
		eventService.NewPublisher(nil, zerolog.Nop()),
		nil,
		time.Hour,
		zerolog.Nop(),
	)
	h := NewAnswerHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	})
	r.POST("/api/debate/question/:id/answer", h.CreateAnswer)
	r.GET("/api/debate/question/:id/results", h.GetResults)
	r.GET("/api/debate/question/:id/top", h.TopAnswers)
	r.POST("/api/debate/answers/:answerId/like", h.Like)
	r.DELETE("/api/debate/answers/:answerId/like", h.Unlike)
	return r, db
}

func do(r *gin.Engine, method, path, body string, userID uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "1.2.3.4:5555"
	if userID != 0 {
		req.Header.Set(testUserHeader, fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAnswerEndpoint(t *testing.T) {
	r, db := newRouter(t)
	q := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 6), entity.QuestionActive)
	path := fmt.Sprintf("/api/debate/question/%d/answer", q.ID)

	w := do(r, http.MethodPost, path, `{"side":"A","body":"sure"}`, 0)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, path, `{"side":"B","body":"again"}`, 0)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already answered")

	w = do(r, http.MethodPost, path, `{"side":"C","body":"x"}`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "side must be one of [A B]")

	w = do(r, http.MethodPost, "/api/debate/question/abc/answer", `{"side":"A","body":"x"}`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stored entity.Answer
	if assert.NoError(t, db.Where("question_id = ?", q.ID).First(&stored).Error) {
		assert.Equal(t, "1.2.3.4", stored.IPAddress)
		assert.Nil(t, stored.UserID)
	}

	w = do(r, http.MethodGet, fmt.Sprintf("/api/debate/question/%d/results", q.ID), "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestLikeEndpoints(t *testing.T) {
	r, db := newRouter(t)
	q := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 6), entity.QuestionActive)
	author := testutil.SeedUser(t, db, "author")
	fan := testutil.SeedUser(t, db, "fan")
	a := testutil.SeedAnswer(t, db, q.ID, &author, "9.9.9.9", entity.SideA, 0)
	path := fmt.Sprintf("/api/debate/answers/%d/like", a.ID)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, path, "", 0).Code)

	w := do(r, http.MethodPost, path, "", author)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "cannot like your own answer")

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, path, "", fan).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, path, "", fan).Code)

	w = do(r, http.MethodDelete, path, "", fan)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":true`)

	w = do(r, http.MethodDelete, path, "", fan)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":false`)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/debate/answers/999/like", "", fan).Code)

	w = do(r, http.MethodGet, fmt.Sprintf("/api/debate/question/%d/top", q.ID), "", 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"A":[`)
	assert.Contains(t, w.Body.String(), `"B":[]`)
}
