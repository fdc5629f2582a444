package repository

import (
	"context"
	"testing"

	"anoa.com/dailydebate/internal/entity"
	"anoa.com/dailydebate/internal/testutil"
	"anoa.com/dailydebate/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestLockQuestionTakesSharedRowLock(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=debate dbname=debate sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []entity.Question
		return questionQuery(lockForShare(tx), 7).Find(&rows)
	})
	assert.Contains(t, sql, `FROM "questions"`)
	assert.Contains(t, sql, "FOR SHARE")

	plain := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []entity.Question
		return questionQuery(tx, 7).Find(&rows)
	})
	assert.NotContains(t, plain, "FOR SHARE")
}

func TestLockQuestionInsideTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnswerRepository(db)
	q := testutil.SeedQuestion(t, db, calendar.Date(2025, 3, 6), entity.QuestionActive)

	err := repo.Transaction(context.Background(), func(tx *gorm.DB) error {
		got, err := repo.WithTx(tx).LockQuestion(context.Background(), q.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entity.QuestionActive, got.Status)

		missing, err := repo.WithTx(tx).LockQuestion(context.Background(), q.ID+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}
