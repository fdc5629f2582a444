package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/dailydebate/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateAnswer = errors.New("duplicate answer")
	ErrDuplicateLike   = errors.New("duplicate like")
)

// Sort orders accepted by List.
const (
	SortLikesDesc = "likes_desc"
	SortLikesAsc  = "likes_asc"
	SortNew       = "new"
	SortOld       = "old"
)

var sortClauses = map[string]string{
	SortLikesDesc: "a.likes_count DESC, a.id ASC",
	SortLikesAsc:  "a.likes_count ASC, a.id ASC",
	SortNew:       "a.created_at DESC, a.id DESC",
	SortOld:       "a.created_at ASC, a.id ASC",
}

type AnswerRow struct {
	ID          uint        `json:"id"`
	QuestionID  uint        `json:"question_id"`
	UserID      *uint       `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Side        entity.Side `json:"side"`
	Body        string      `json:"body"`
	LikesCount  int64       `json:"likes_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

type SideTally struct {
	Side  entity.Side
	Votes int64
}

type ListFilter struct {
	QuestionID uint
	Side       entity.Side
	Sort       string
	Limit      int
	Offset     int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	FindQuestion(ctx context.Context, id uint) (*entity.Question, error)
	// LockQuestion reads the question under a shared row lock, so a rollover
	// closing it waits for the caller's transaction and vice versa.
	LockQuestion(ctx context.Context, id uint) (*entity.Question, error)
	FindByID(ctx context.Context, id uint) (*entity.Answer, error)
	ExistsForUser(ctx context.Context, questionID, userID uint) (bool, error)
	ExistsForIP(ctx context.Context, questionID uint, ip string) (bool, error)
	Create(ctx context.Context, a *entity.Answer) error

	LikeExists(ctx context.Context, answerID, userID uint) (bool, error)
	CreateLike(ctx context.Context, like *entity.AnswerLike) error
	DeleteLike(ctx context.Context, answerID, userID uint) (bool, error)
	AdjustLikes(ctx context.Context, answerID uint, delta int64) error

	Tally(ctx context.Context, questionID uint) ([]SideTally, error)
	List(ctx context.Context, filter ListFilter) ([]AnswerRow, error)
	FindRowForUser(ctx context.Context, questionID, userID uint) (*AnswerRow, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) Repository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) Repository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *answerRepository) FindQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	return findQuestion(r.db.WithContext(ctx), id)
}

func (r *answerRepository) LockQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	return findQuestion(lockForShare(r.db.WithContext(ctx)), id)
}

func lockForShare(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "SHARE"})
}

func questionQuery(db *gorm.DB, id uint) *gorm.DB {
	return db.Where("id = ?", id).Limit(1)
}

func findQuestion(db *gorm.DB, id uint) (*entity.Question, error) {
	var rows []entity.Question
	if err := questionQuery(db, id).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *answerRepository) FindByID(ctx context.Context, id uint) (*entity.Answer, error) {
	var rows []entity.Answer
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *answerRepository) ExistsForUser(ctx context.Context, questionID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("question_id = ? AND user_id = ?", questionID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *answerRepository) ExistsForIP(ctx context.Context, questionID uint, ip string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("question_id = ? AND user_id IS NULL AND ip_address = ?", questionID, ip).
		Count(&count).Error
	return count > 0, err
}

func (r *answerRepository) Create(ctx context.Context, a *entity.Answer) error {
	err := r.db.WithContext(ctx).Omit("Question").Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateAnswer
	}
	return err
}

func (r *answerRepository) LikeExists(ctx context.Context, answerID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.AnswerLike{}).
		Where("answer_id = ? AND user_id = ?", answerID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *answerRepository) CreateLike(ctx context.Context, like *entity.AnswerLike) error {
	err := r.db.WithContext(ctx).Omit("Answer").Create(like).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateLike
	}
	return err
}

func (r *answerRepository) DeleteLike(ctx context.Context, answerID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("answer_id = ? AND user_id = ?", answerID, userID).
		Delete(&entity.AnswerLike{})
	return result.RowsAffected > 0, result.Error
}

func (r *answerRepository) AdjustLikes(ctx context.Context, answerID uint, delta int64) error {
	query := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Where("id = ?", answerID)
	if delta < 0 {
		// Never drive the counter below zero.
		query = query.Where("likes_count >= ?", -delta)
	}
	return query.Update("likes_count", gorm.Expr("likes_count + ?", delta)).Error
}

func (r *answerRepository) Tally(ctx context.Context, questionID uint) ([]SideTally, error) {
	var rows []SideTally
	err := r.db.WithContext(ctx).
		Model(&entity.Answer{}).
		Select("side, COUNT(*) AS votes").
		Where("question_id = ?", questionID).
		Group("side").
		Scan(&rows).Error
	return rows, err
}

func (r *answerRepository) rows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("answers AS a").
		Select("a.id, a.question_id, a.user_id, COALESCE(u.display_name, '') AS display_name, a.side, a.body, a.likes_count, a.created_at").
		Joins("LEFT JOIN users u ON u.id = a.user_id")
}

func (r *answerRepository) List(ctx context.Context, filter ListFilter) ([]AnswerRow, error) {
	order, ok := sortClauses[filter.Sort]
	if !ok {
		order = sortClauses[SortLikesDesc]
	}

	query := r.rows(ctx).Where("a.question_id = ?", filter.QuestionID)
	if filter.Side != "" {
		query = query.Where("a.side = ?", filter.Side)
	}

	var rows []AnswerRow
	err := query.
		Order(order).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Scan(&rows).Error
	return rows, err
}

func (r *answerRepository) FindRowForUser(ctx context.Context, questionID, userID uint) (*AnswerRow, error) {
	var rows []AnswerRow
	err := r.rows(ctx).
		Where("a.question_id = ? AND a.user_id = ?", questionID, userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
