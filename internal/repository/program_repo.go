package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/models"
)

// ProgramRepository exposes persistence operations for programs.
type ProgramRepository interface {
	List(ctx context.Context) ([]models.Program, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Program, error)
	GetByID(ctx context.Context, id uint) (models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, id uint) error
}

// NewProgramRepository constructs a program repository.
func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

type programRepository struct {
	db *gorm.DB
}

func (r *programRepository) List(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepository) ListByClass(ctx context.Context, classID uint) ([]models.Program, error) {
	var programs []models.Program
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&programs).Error
	if err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepository) GetByID(ctx context.Context, id uint) (models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).First(&program, id).Error; err != nil {
		return models.Program{}, err
	}
	return program, nil
}

func (r *programRepository) Create(ctx context.Context, program *models.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

// Delete removes a program together with its summaries, quizzes and
// submissions in one transaction. Submissions are deleted explicitly rather
// than through the quiz FK cascade, which not every store enforces.
func (r *programRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("program_id = ?", id).Delete(&models.Summary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("program_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("program_id = ?", id).Delete(&models.Quiz{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Program{}, id).Error
	})
}
