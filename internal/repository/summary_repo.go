package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/models"
)

// SummaryRepository exposes persistence operations for program summaries.
type SummaryRepository interface {
	ListByProgram(ctx context.Context, programID uint) ([]models.Summary, error)
	GetByProgramAndLanguage(ctx context.Context, programID uint, language string) (models.Summary, error)
	Replace(ctx context.Context, programID uint, summaries []models.Summary) error
}

// NewSummaryRepository constructs a summary repository.
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

type summaryRepository struct {
	db *gorm.DB
}

func (r *summaryRepository) ListByProgram(ctx context.Context, programID uint) ([]models.Summary, error) {
	var summaries []models.Summary
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("language ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *summaryRepository) GetByProgramAndLanguage(ctx context.Context, programID uint, language string) (models.Summary, error) {
	var summary models.Summary
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND language = ?", programID, language).
		First(&summary).Error
	if err != nil {
		return models.Summary{}, err
	}
	return summary, nil
}

// Replace drops any existing summaries for the program and inserts the new
// set atomically, so readers never observe a partially regenerated program.
func (r *summaryRepository) Replace(ctx context.Context, programID uint, summaries []models.Summary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("program_id = ?", programID).Delete(&models.Summary{}).Error; err != nil {
			return err
		}
		if len(summaries) == 0 {
			return nil
		}
		return tx.Create(&summaries).Error
	})
}
