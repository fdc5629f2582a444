package testutil

import (
	"fmt"
	"testing"
	"time"

	"anoa.com/dailydebate/internal/bootstrap"
	"anoa.com/dailydebate/internal/entity"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory SQLite database with every model
// migrated. A single connection keeps concurrent tests from tripping over
// SQLITE_BUSY; goroutines simply queue for it.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// SeedUser inserts a member with a unique email and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	user := entity.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		DisplayName:  name,
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user.ID
}

// SeedQuestion inserts a question with the given date and status.
func SeedQuestion(t *testing.T, db *gorm.DB, published time.Time, status entity.QuestionStatus) entity.Question {
	t.Helper()
	q := entity.Question{
		Text:          "Pineapple on pizza?",
		OptionA:       "Yes",
		OptionB:       "No",
		PublishedDate: published,
		Status:        status,
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	return q
}

// SeedAnswer inserts an answer directly, bypassing the answer service.
func SeedAnswer(t *testing.T, db *gorm.DB, questionID uint, userID *uint, ip string, side entity.Side, likes int64) entity.Answer {
	t.Helper()
	a := entity.Answer{
		QuestionID: questionID,
		UserID:     userID,
		IPAddress:  ip,
		Side:       side,
		Body:       "because",
		LikesCount: likes,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("failed to seed answer: %v", err)
	}
	return a
}

// Stats loads a user's stats row, failing the test when absent.
func Stats(t *testing.T, db *gorm.DB, userID uint) entity.UserStats {
	t.Helper()
	var s entity.UserStats
	if err := db.First(&s, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load stats for %d: %v", userID, err)
	}
	return s
}
