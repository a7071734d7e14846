package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
)

type gradableQuizRepo struct {
	quizzes map[uint]models.Quiz
	saved   *models.Quiz
	saveErr error
}

func (s *gradableQuizRepo) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, ok := s.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}
func (s *gradableQuizRepo) GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error) {
	return models.Quiz{}, gorm.ErrRecordNotFound
}
func (s *gradableQuizRepo) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	return nil, nil
}
func (s *gradableQuizRepo) ListByProgram(ctx context.Context, programID uint) ([]repository.QuizWithStudent, error) {
	return nil, nil
}
func (s *gradableQuizRepo) ListByStudent(ctx context.Context, studentID uint) ([]repository.QuizWithProgram, error) {
	return nil, nil
}
func (s *gradableQuizRepo) CreateWithSubmission(ctx context.Context, quiz *models.Quiz, submission *models.Submission) error {
	return nil
}
func (s *gradableQuizRepo) SaveGrade(ctx context.Context, quiz *models.Quiz) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	// Mirrors the conditional update: only the first grade write lands.
	if s.saved != nil {
		return gorm.ErrRecordNotFound
	}
	s.saved = quiz
	return nil
}

func newQuizFixture(t *testing.T, quizzes map[uint]models.Quiz) (*gradableQuizRepo, *stubPublisher, QuizService) {
	t.Helper()
	repo := &gradableQuizRepo{quizzes: quizzes}
	publisher := &stubPublisher{}
	svc := NewQuizService(repo, publisher, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
	return repo, publisher, svc
}

func storedQuiz(answerKey map[string]string) models.Quiz {
	raw, _ := json.Marshal(answerKey)
	return models.Quiz{
		ID:        5,
		ProgramID: 7,
		StudentID: 3,
		AnswerKey: datatypes.JSON(raw),
	}
}

func TestMarkGradesAnswersLeniently(t *testing.T) {
	repo, publisher, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{"0": "B", "1": "C", "2": "A"}),
	})

	answers, _ := json.Marshal(map[string]string{"0": " b ", "1": "c", "2": "D"})
	response, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.NoError(t, err)

	require.Equal(t, uint(5), response.QuizID)
	require.Equal(t, 2, response.Marks)
	require.Equal(t, 3, response.Total)

	// The original key survives grading; submitted answers land in their
	// own column.
	require.NotNil(t, repo.saved)
	require.JSONEq(t, `{"0":"B","1":"C","2":"A"}`, string(repo.saved.AnswerKey))
	require.JSONEq(t, `{"0":" b ","1":"c","2":"D"}`, string(repo.saved.StudentAnswers))
	require.NotNil(t, repo.saved.Marks)
	require.Equal(t, 2, *repo.saved.Marks)

	require.Len(t, publisher.events, 1)
	require.Equal(t, ActivityQuizGraded, publisher.events[0].event.Type)
}

func TestMarkCountsMissingAnswersAsWrong(t *testing.T) {
	_, _, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{"0": "A", "1": "B", "2": "C", "3": "D"}),
	})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	response, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.NoError(t, err)
	require.Equal(t, 1, response.Marks)
	require.Equal(t, 4, response.Total)
}

func TestMarkIgnoresExtraAnswers(t *testing.T) {
	_, _, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{"0": "A"}),
	})

	answers, _ := json.Marshal(map[string]string{"0": "A", "9": "B", "stray": "C"})
	response, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.NoError(t, err)
	require.Equal(t, 1, response.Marks)
	require.Equal(t, 1, response.Total)
}

func TestMarkRejectsNonObjectAnswersBeforeLookup(t *testing.T) {
	repo, _, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{"0": "A"}),
	})

	for _, raw := range []string{`["A", "B"]`, `"A"`, `42`, `null`} {
		_, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: json.RawMessage(raw)})
		require.ErrorIs(t, err, ErrInvalidAnswerFormat, "payload %s", raw)
	}
	require.Nil(t, repo.saved)
}

func TestMarkRejectsUnknownQuiz(t *testing.T) {
	_, _, svc := newQuizFixture(t, map[uint]models.Quiz{})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	_, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 404, Answers: answers})
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestMarkRejectsSecondGrading(t *testing.T) {
	marks := 3
	graded := storedQuiz(map[string]string{"0": "A"})
	graded.Marks = &marks

	repo, publisher, svc := newQuizFixture(t, map[uint]models.Quiz{5: graded})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	_, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.ErrorIs(t, err, ErrQuizAlreadyGraded)
	require.Nil(t, repo.saved)
	require.Empty(t, publisher.events)
}

func TestMarkSerializesConcurrentGrading(t *testing.T) {
	// The repository map is never updated, so the second Mark reads the
	// same ungraded row the first did. The write-side condition decides.
	_, publisher, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{"0": "A"}),
	})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	_, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.ErrorIs(t, err, ErrQuizAlreadyGraded)
	require.Len(t, publisher.events, 1)
}

func TestMarkSurfacesCorruptedAnswerKey(t *testing.T) {
	broken := storedQuiz(nil)
	broken.AnswerKey = datatypes.JSON(`{"0":`)

	repo, _, svc := newQuizFixture(t, map[uint]models.Quiz{5: broken})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	_, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.Error(t, err)
	// Server-side corruption is not the client's fault.
	require.NotErrorIs(t, err, ErrInvalidAnswerFormat)
	require.Nil(t, repo.saved)
}

func TestMarkGradesEmptyKeyAsZeroOfZero(t *testing.T) {
	_, _, svc := newQuizFixture(t, map[uint]models.Quiz{
		5: storedQuiz(map[string]string{}),
	})

	answers, _ := json.Marshal(map[string]string{"0": "A"})
	response, err := svc.Mark(context.Background(), dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.NoError(t, err)
	require.Zero(t, response.Marks)
	require.Zero(t, response.Total)
}

func TestGetMapsMissingQuiz(t *testing.T) {
	_, _, svc := newQuizFixture(t, map[uint]models.Quiz{})

	_, err := svc.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrQuizNotFound)

	_, err = svc.GetByProgramAndStudent(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrQuizNotFound)
}
