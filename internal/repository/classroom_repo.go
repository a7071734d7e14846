package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/models"
)

// ClassroomWithProfessor pairs a classroom row with the professor's username.
type ClassroomWithProfessor struct {
	models.Classroom
	Professor string `json:"professor"`
}

// ClassroomRepository exposes persistence operations for classrooms.
type ClassroomRepository interface {
	List(ctx context.Context) ([]ClassroomWithProfessor, error)
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
}

// NewClassroomRepository constructs a classroom repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

type classroomRepository struct {
	db *gorm.DB
}

func (r *classroomRepository) List(ctx context.Context) ([]ClassroomWithProfessor, error) {
	var rows []ClassroomWithProfessor
	err := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Select("classrooms.*, users.username AS professor").
		Joins("JOIN users ON users.id = classrooms.professor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Classroom{}, id).Error
}
