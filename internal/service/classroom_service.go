package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
)

// ErrClassroomNotFound indicates the classroom does not exist.
var ErrClassroomNotFound = errors.New("classroom not found")

// ClassroomService manages classrooms and their membership views.
type ClassroomService interface {
	List(ctx context.Context) ([]repository.ClassroomWithProfessor, error)
	Detail(ctx context.Context, id uint) (dto.ClassroomDetailResponse, error)
	Create(ctx context.Context, professorID uint, payload dto.CreateClassroomRequest) (models.Classroom, error)
	Delete(ctx context.Context, id uint) error
}

type classroomService struct {
	classrooms repository.ClassroomRepository
	users      repository.UserRepository
	programs   repository.ProgramRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewClassroomService constructs the classroom service.
func NewClassroomService(classrooms repository.ClassroomRepository, users repository.UserRepository, programs repository.ProgramRepository, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms: classrooms,
		users:      users,
		programs:   programs,
		validator:  validate,
		logger:     logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) List(ctx context.Context) ([]repository.ClassroomWithProfessor, error) {
	return s.classrooms.List(ctx)
}

func (s *classroomService) Detail(ctx context.Context, id uint) (dto.ClassroomDetailResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomDetailResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomDetailResponse{}, err
	}

	students, err := s.users.ListStudentsByClass(ctx, id)
	if err != nil {
		return dto.ClassroomDetailResponse{}, err
	}

	programs, err := s.programs.ListByClass(ctx, id)
	if err != nil {
		return dto.ClassroomDetailResponse{}, err
	}

	studentViews := make([]dto.UserResponse, 0, len(students))
	for _, student := range students {
		studentViews = append(studentViews, dto.NewUserResponse(student))
	}

	return dto.ClassroomDetailResponse{
		Classroom: classroom,
		Students:  studentViews,
		Programs:  programs,
	}, nil
}

func (s *classroomService) Create(ctx context.Context, professorID uint, payload dto.CreateClassroomRequest) (models.Classroom, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Classroom{}, err
	}

	classroom := models.Classroom{
		Name:        payload.Name,
		ProfessorID: professorID,
	}
	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (s *classroomService) Delete(ctx context.Context, id uint) error {
	return s.classrooms.Delete(ctx, id)
}
