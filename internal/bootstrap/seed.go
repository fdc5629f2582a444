package bootstrap

import (
	"fmt"

	"anoa.com/dailydebate/internal/entity"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Partial indexes gorm tags cannot express. Both Postgres and SQLite accept
// this syntax.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_questions_single_active ON questions (status) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_answers_anon_ip ON answers (question_id, ip_address) WHERE user_id IS NULL`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Question{},
		&entity.Answer{},
		&entity.AnswerLike{},
		&entity.Participation{},
		&entity.UserStats{},
		&entity.DailyUserInfluence{},
		&entity.Settlement{},
	); err != nil {
		return err
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}
	return nil
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Schedules questions and triggers rollovers"},
		{Name: entity.RoleMember, Description: "Answers and likes"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates the admin account from ADMIN_EMAIL/ADMIN_PASSWORD.
// It is a no-op when either is empty or the account already exists.
func SeedAdminUser(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Debug().Str("email", email).Msg("admin user already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := entity.User{
		Email:        email,
		DisplayName:  "Administrator",
		PasswordHash: string(hashed),
		RoleID:       &adminRole.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("admin user seeded")
	return nil
}
