// internal/repository/learner_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_4_scan_read/internal/middleware"
	"go_4_scan_read/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type LearnerRepository interface {
	Create(ctx context.Context, db *gorm.DB, learner *model.Learner) error
	FindByID(ctx context.Context, db *gorm.DB, learnerID uuid.UUID) (*model.Learner, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Learner, error)
}

type gormLearnerRepository struct{}

func NewGormLearnerRepository() LearnerRepository {
	return &gormLearnerRepository{}
}

func (r *gormLearnerRepository) Create(ctx context.Context, db *gorm.DB, learner *model.Learner) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(learner)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			logger.Warn(
				"Duplicate key error on create learner",
				"error", result.Error,
				"email", learner.Email,
			)
			return model.ErrConflict
		}

		logger.Error(
			"Error creating learner in DB",
			"error", result.Error,
			"email", learner.Email,
		)
		return fmt.Errorf("gormLearnerRepository.Create: %w", result.Error)
	}

	return nil
}

func (r *gormLearnerRepository) FindByID(ctx context.Context, db *gorm.DB, learnerID uuid.UUID) (*model.Learner, error) {
	logger := middleware.GetLogger(ctx)
	var learner model.Learner

	result := db.WithContext(ctx).Where("learner_id = ?", learnerID).First(&learner)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error(
			"Error finding learner by ID in DB",
			"error", result.Error,
			"learner_id", learnerID.String(),
		)
		return nil, fmt.Errorf("gormLearnerRepository.FindByID: %w", result.Error)
	}
	return &learner, nil
}

func (r *gormLearnerRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Learner, error) {
	logger := middleware.GetLogger(ctx)
	var learner model.Learner

	result := db.WithContext(ctx).Where("email = ?", email).First(&learner)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("Learner not found by email", "email", email)
			return nil, model.ErrNotFound
		}
		logger.Error(
			"Error finding learner by email in DB",
			"error", result.Error,
			"email", email,
		)
		return nil, fmt.Errorf("gormLearnerRepository.FindByEmail: %w", result.Error)
	}
	return &learner, nil
}
