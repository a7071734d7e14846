package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
	"github.com/sahayak-labs/paathshala-api/pkg/ai"
	"github.com/sahayak-labs/paathshala-api/pkg/judge"
)

type stubProgramRepo struct {
	programs map[uint]models.Program
}

func (s *stubProgramRepo) List(ctx context.Context) ([]models.Program, error) { return nil, nil }
func (s *stubProgramRepo) ListByClass(ctx context.Context, classID uint) ([]models.Program, error) {
	return nil, nil
}
func (s *stubProgramRepo) GetByID(ctx context.Context, id uint) (models.Program, error) {
	program, ok := s.programs[id]
	if !ok {
		return models.Program{}, gorm.ErrRecordNotFound
	}
	return program, nil
}
func (s *stubProgramRepo) Create(ctx context.Context, program *models.Program) error { return nil }
func (s *stubProgramRepo) Delete(ctx context.Context, id uint) error                 { return nil }

type stubQuizRepo struct {
	createdQuiz       *models.Quiz
	createdSubmission *models.Submission
	createErr         error
}

func (s *stubQuizRepo) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	return models.Quiz{}, gorm.ErrRecordNotFound
}
func (s *stubQuizRepo) GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error) {
	return models.Quiz{}, gorm.ErrRecordNotFound
}
func (s *stubQuizRepo) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	return nil, nil
}
func (s *stubQuizRepo) ListByProgram(ctx context.Context, programID uint) ([]repository.QuizWithStudent, error) {
	return nil, nil
}
func (s *stubQuizRepo) ListByStudent(ctx context.Context, studentID uint) ([]repository.QuizWithProgram, error) {
	return nil, nil
}
func (s *stubQuizRepo) CreateWithSubmission(ctx context.Context, quiz *models.Quiz, submission *models.Submission) error {
	if s.createErr != nil {
		return s.createErr
	}
	quiz.ID = 11
	submission.ID = 21
	submission.QuizID = quiz.ID
	s.createdQuiz = quiz
	s.createdSubmission = submission
	return nil
}
func (s *stubQuizRepo) SaveGrade(ctx context.Context, quiz *models.Quiz) error { return nil }

type stubSubmissionRepo struct{}

func (s *stubSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	return models.Submission{}, gorm.ErrRecordNotFound
}
func (s *stubSubmissionRepo) ListByProgramAndStudent(ctx context.Context, programID, studentID uint) ([]models.Submission, error) {
	return nil, nil
}
func (s *stubSubmissionRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	return nil, nil
}

type stubGenerator struct {
	responses []string
	err       error
	inputs    []ai.QuizInput
}

func (s *stubGenerator) GenerateQuiz(ctx context.Context, input ai.QuizInput) (string, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return "", s.err
	}
	response := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return response, nil
}

type stubRunner struct {
	failFor map[string]error
}

func (s *stubRunner) Run(ctx context.Context, req judge.RunRequest) (judge.Result, error) {
	if err, ok := s.failFor[req.Stdin]; ok {
		return judge.Result{}, err
	}
	return judge.Result{Stdout: "out:" + req.Stdin, Status: "Accepted"}, nil
}

type capturedEvent struct {
	event ActivityEvent
}

type stubPublisher struct {
	events []capturedEvent
}

func (s *stubPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	s.events = append(s.events, capturedEvent{event: event})
	return nil
}

const goodQuizResponse = `{
  "code_errors": [],
  "code_correct": true,
  "quiz": [{"question": "What is returned?", "options": ["A) 0", "B) 1"]}],
  "answer_key": {"0": "A"},
  "test_inputs": ["1", "2", "3"]
}`

func newSubmissionFixture(t *testing.T) (*stubProgramRepo, *stubQuizRepo, *stubGenerator, *stubRunner, *stubPublisher, SubmissionService) {
	t.Helper()
	programs := &stubProgramRepo{programs: map[uint]models.Program{
		7: {ID: 7, Title: "Exit code", Code: "int main(){return 0;}", ClassID: 1},
	}}
	quizzes := &stubQuizRepo{}
	generator := &stubGenerator{responses: []string{goodQuizResponse}}
	runner := &stubRunner{}
	publisher := &stubPublisher{}
	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewSubmissionService(programs, quizzes, &stubSubmissionRepo{}, generator, runner, publisher, validate, logger)
	return programs, quizzes, generator, runner, publisher, svc
}

func TestSubmitRunsFullPipeline(t *testing.T) {
	_, quizzes, generator, _, publisher, svc := newSubmissionFixture(t)

	response, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "int main(){return 0;}",
		LanguageID: 50,
	})
	require.NoError(t, err)

	require.Equal(t, uint(21), response.ID)
	require.Equal(t, uint(11), response.QuizID)
	require.True(t, response.Quiz.CodeCorrect)

	// One run per generated input, results in input order.
	require.Len(t, response.Results, 3)
	for i, stdin := range []string{"1", "2", "3"} {
		require.Equal(t, stdin, response.Results[i].Stdin)
		require.Equal(t, "out:"+stdin, response.Results[i].Stdout)
	}

	// Generation defaults to English.
	require.Len(t, generator.inputs, 1)
	require.Equal(t, "English", generator.inputs[0].Language)
	require.Equal(t, "int main(){return 0;}", generator.inputs[0].ReferenceCode)

	require.NotNil(t, quizzes.createdQuiz)
	require.Equal(t, uint(3), quizzes.createdQuiz.StudentID)
	require.NotNil(t, quizzes.createdSubmission)
	require.False(t, quizzes.createdSubmission.HasError)
	require.Equal(t, uint(11), quizzes.createdSubmission.QuizID)

	require.Len(t, publisher.events, 1)
	require.Equal(t, ActivitySubmissionReceived, publisher.events[0].event.Type)
	require.Equal(t, uint(11), publisher.events[0].event.QuizID)
}

func TestSubmitFlagsIncorrectCode(t *testing.T) {
	_, quizzes, generator, _, _, svc := newSubmissionFixture(t)
	generator.responses = []string{strings.Replace(goodQuizResponse, `"code_correct": true`, `"code_correct": false`, 1)}

	response, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "int main(){return 1;}",
		LanguageID: 50,
	})
	require.NoError(t, err)
	require.False(t, response.Quiz.CodeCorrect)
	require.True(t, quizzes.createdSubmission.HasError)
}

func TestSubmitRejectsUnknownProgram(t *testing.T) {
	_, _, _, _, _, svc := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  99,
		Code:       "x",
		LanguageID: 50,
	})
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestSubmitRejectsUnsupportedLanguage(t *testing.T) {
	_, _, generator, _, _, svc := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:    7,
		Code:         "x",
		LanguageID:   50,
		QuizLanguage: "xx",
	})
	require.ErrorIs(t, err, ErrUnsupportedQuizLanguage)
	require.Empty(t, generator.inputs)
}

func TestSubmitTranslatesLanguageTag(t *testing.T) {
	_, _, generator, _, _, svc := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:    7,
		Code:         "x",
		LanguageID:   50,
		QuizLanguage: "ka",
	})
	require.NoError(t, err)
	require.Equal(t, "Kannada", generator.inputs[0].Language)
}

func TestSubmitRetriesMalformedResponseOnce(t *testing.T) {
	_, _, generator, _, _, svc := newSubmissionFixture(t)
	generator.responses = []string{"sorry, I cannot do that", goodQuizResponse}

	response, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "x",
		LanguageID: 50,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 3)

	require.Len(t, generator.inputs, 2)
	require.False(t, generator.inputs[0].StrictJSON)
	require.True(t, generator.inputs[1].StrictJSON)
}

func TestSubmitSurfacesPersistentlyMalformedResponse(t *testing.T) {
	_, quizzes, generator, _, _, svc := newSubmissionFixture(t)
	generator.responses = []string{"garbage", "more garbage"}

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "x",
		LanguageID: 50,
	})
	require.ErrorIs(t, err, ai.ErrMalformedResponse)
	require.Len(t, generator.inputs, 2)
	require.Nil(t, quizzes.createdQuiz)
}

func TestSubmitWrapsProviderFailure(t *testing.T) {
	_, _, generator, _, _, svc := newSubmissionFixture(t)
	generator.err = errors.New("rate limited")

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "x",
		LanguageID: 50,
	})
	require.ErrorIs(t, err, ErrQuizGenerationFailed)
}

func TestSubmitIsolatesFailedTestRuns(t *testing.T) {
	_, _, _, runner, _, svc := newSubmissionFixture(t)
	runner.failFor = map[string]error{"2": fmt.Errorf("token abc: %w", judge.ErrTimeout)}

	response, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{
		ProgramID:  7,
		Code:       "x",
		LanguageID: 50,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 3)

	require.Equal(t, "out:1", response.Results[0].Stdout)
	require.Empty(t, response.Results[1].Stdout)
	require.Contains(t, response.Results[1].Stderr, "timed out")
	require.Equal(t, "out:3", response.Results[2].Stdout)
}

func TestSubmitValidatesPayload(t *testing.T) {
	_, _, generator, _, _, svc := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), 3, dto.SubmitCodeRequest{ProgramID: 7})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Empty(t, generator.inputs)
}
