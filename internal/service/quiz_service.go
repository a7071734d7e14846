package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
)

// ErrQuizNotFound indicates the quiz cannot be located.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrInvalidAnswerFormat indicates the submitted answers are not an object
// mapping question indices to option letters.
var ErrInvalidAnswerFormat = errors.New("invalid answer format")

// ErrQuizAlreadyGraded indicates the quiz has a recorded score already;
// grading happens at most once.
var ErrQuizAlreadyGraded = errors.New("quiz already graded")

// QuizService grades quizzes and serves quiz queries.
type QuizService interface {
	Mark(ctx context.Context, payload dto.MarkQuizRequest) (dto.MarkQuizResponse, error)
	Get(ctx context.Context, id uint) (models.Quiz, error)
	GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error)
	ListByProgram(ctx context.Context, programID uint) ([]repository.QuizWithStudent, error)
	ListByStudent(ctx context.Context, studentID uint) ([]repository.QuizWithProgram, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	activity  ActivityPublisher
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuizService constructs the quiz grading service.
func NewQuizService(quizzes repository.QuizRepository, activity ActivityPublisher, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizzes,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

// Mark grades the quiz against its stored answer key. The key is read before
// anything is written and kept in its own column, so a graded quiz still
// carries the original key; a second grade attempt is rejected.
func (s *quizService) Mark(ctx context.Context, payload dto.MarkQuizRequest) (dto.MarkQuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MarkQuizResponse{}, err
	}

	userAnswers, err := decodeAnswers(payload.Answers)
	if err != nil {
		return dto.MarkQuizResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, payload.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MarkQuizResponse{}, ErrQuizNotFound
		}
		return dto.MarkQuizResponse{}, err
	}

	if quiz.IsGraded() {
		return dto.MarkQuizResponse{}, ErrQuizAlreadyGraded
	}

	// A key that does not decode is server-side corruption, not client
	// input; it must not surface as a 400.
	var answerKey map[string]string
	if err := json.Unmarshal(quiz.AnswerKey, &answerKey); err != nil {
		return dto.MarkQuizResponse{}, fmt.Errorf("stored answer key for quiz %d is unreadable: %w", quiz.ID, err)
	}

	marks, total := score(answerKey, userAnswers)

	submitted, err := json.Marshal(userAnswers)
	if err != nil {
		return dto.MarkQuizResponse{}, err
	}
	quiz.StudentAnswers = datatypes.JSON(submitted)
	quiz.Marks = &marks

	if err := s.quizzes.SaveGrade(ctx, &quiz); err != nil {
		// Zero rows updated means another request graded the quiz
		// between our read and this write.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MarkQuizResponse{}, ErrQuizAlreadyGraded
		}
		return dto.MarkQuizResponse{}, err
	}

	if s.activity != nil {
		if err := s.activity.Publish(ctx, ActivityEvent{
			Type:      ActivityQuizGraded,
			ProgramID: quiz.ProgramID,
			StudentID: quiz.StudentID,
			QuizID:    quiz.ID,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("quiz_id", quiz.ID).Msg("activity publish failed")
		}
	}

	return dto.MarkQuizResponse{QuizID: quiz.ID, Marks: marks, Total: total}, nil
}

// decodeAnswers rejects any payload that is not a JSON object with string
// values before grading touches the database.
func decodeAnswers(raw json.RawMessage) (map[string]string, error) {
	var answers map[string]string
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, ErrInvalidAnswerFormat
	}
	if answers == nil {
		return nil, ErrInvalidAnswerFormat
	}
	return answers, nil
}

// score compares answers case-insensitively and whitespace-trimmed. Every
// key in the stored answer key counts toward the total; a missing user
// answer is simply wrong.
func score(answerKey, userAnswers map[string]string) (marks, total int) {
	for key, correct := range answerKey {
		total++
		answer, ok := userAnswers[key]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(correct)) {
			marks++
		}
	}
	return marks, total
}

func (s *quizService) Get(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (s *quizService) GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByProgramAndStudent(ctx, programID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (s *quizService) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	return s.quizzes.ListByClass(ctx, classID)
}

func (s *quizService) ListByProgram(ctx context.Context, programID uint) ([]repository.QuizWithStudent, error) {
	return s.quizzes.ListByProgram(ctx, programID)
}

func (s *quizService) ListByStudent(ctx context.Context, studentID uint) ([]repository.QuizWithProgram, error) {
	return s.quizzes.ListByStudent(ctx, studentID)
}
