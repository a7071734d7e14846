package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/models"
)

// QuizWithStudent pairs a quiz row with the owning student's username.
type QuizWithStudent struct {
	models.Quiz
	Username string `json:"username"`
}

// QuizWithProgram pairs a quiz row with the title of its program.
type QuizWithProgram struct {
	models.Quiz
	ProgramName string `json:"program_name"`
}

// QuizRepository exposes persistence operations for quizzes and the paired
// submission insert.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error)
	ListByProgram(ctx context.Context, programID uint) ([]QuizWithStudent, error)
	ListByStudent(ctx context.Context, studentID uint) ([]QuizWithProgram, error)
	CreateWithSubmission(ctx context.Context, quiz *models.Quiz, submission *models.Submission) error
	SaveGrade(ctx context.Context, quiz *models.Quiz) error
}

// NewQuizRepository constructs a quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

type quizRepository struct {
	db *gorm.DB
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND student_id = ?", programID, studentID).
		Order("created_at DESC").
		First(&quiz).Error
	if err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.WithContext(ctx).
		Joins("JOIN programs ON programs.id = quizzes.program_id").
		Where("programs.class_id = ?", classID).
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) ListByProgram(ctx context.Context, programID uint) ([]QuizWithStudent, error) {
	var rows []QuizWithStudent
	err := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Select("quizzes.*, users.username AS username").
		Joins("JOIN users ON users.id = quizzes.student_id").
		Where("quizzes.program_id = ?", programID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *quizRepository) ListByStudent(ctx context.Context, studentID uint) ([]QuizWithProgram, error) {
	var rows []QuizWithProgram
	err := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Select("quizzes.*, programs.title AS program_name").
		Joins("JOIN programs ON programs.id = quizzes.program_id").
		Where("quizzes.student_id = ?", studentID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateWithSubmission inserts the quiz and its submission in one
// transaction. The submission's QuizID is filled in from the freshly created
// quiz, so either both rows exist or neither does.
func (r *quizRepository) CreateWithSubmission(ctx context.Context, quiz *models.Quiz, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		submission.QuizID = quiz.ID
		return tx.Create(submission).Error
	})
}

// SaveGrade records the score only while the row is still ungraded. Two
// racing grade requests both pass the read-side check; the condition here
// serializes them, and the loser gets gorm.ErrRecordNotFound.
func (r *quizRepository) SaveGrade(ctx context.Context, quiz *models.Quiz) error {
	result := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND marks IS NULL", quiz.ID).
		Updates(map[string]interface{}{
			"student_answers": quiz.StudentAnswers,
			"marks":           quiz.Marks,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
