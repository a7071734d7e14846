package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
	"github.com/sahayak-labs/paathshala-api/pkg/ai"
	"github.com/sahayak-labs/paathshala-api/pkg/judge"
)

// ErrProgramNotFound indicates the referenced program does not exist.
var ErrProgramNotFound = errors.New("program not found")

// ErrUnsupportedQuizLanguage indicates the requested quiz language tag is not
// in the supported enumeration.
var ErrUnsupportedQuizLanguage = errors.New("unsupported quiz language")

// ErrQuizGenerationFailed indicates the AI provider call itself failed.
var ErrQuizGenerationFailed = errors.New("quiz generation failed")

// quizLanguages maps supported language tags to the natural-language names
// embedded in the generation prompt.
var quizLanguages = map[string]string{
	"en": "English",
	"ka": "Kannada",
	"fr": "French",
	"de": "German",
}

// SubmissionService runs the submission pipeline: fetch the reference
// program, generate the quiz and error report, execute the code against the
// generated test inputs, and persist the quiz/submission pair.
type SubmissionService interface {
	Submit(ctx context.Context, studentID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error)
	ListByProgramAndStudent(ctx context.Context, programID, studentID uint) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
}

type submissionService struct {
	programs    repository.ProgramRepository
	quizzes     repository.QuizRepository
	submissions repository.SubmissionRepository
	generator   ai.QuizGenerator
	runner      judge.Runner
	activity    ActivityPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionService constructs the submission pipeline service.
func NewSubmissionService(programs repository.ProgramRepository, quizzes repository.QuizRepository, submissions repository.SubmissionRepository, generator ai.QuizGenerator, runner judge.Runner, activity ActivityPublisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		programs:    programs,
		quizzes:     quizzes,
		submissions: submissions,
		generator:   generator,
		runner:      runner,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Submit(ctx context.Context, studentID uint, payload dto.SubmitCodeRequest) (dto.SubmitCodeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	tag := payload.QuizLanguage
	if tag == "" {
		tag = "en"
	}
	language, ok := quizLanguages[tag]
	if !ok {
		return dto.SubmitCodeResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedQuizLanguage, tag)
	}

	program, err := s.programs.GetByID(ctx, payload.ProgramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitCodeResponse{}, ErrProgramNotFound
		}
		return dto.SubmitCodeResponse{}, err
	}

	quizPayload, err := s.generateQuiz(ctx, payload.Code, program.Code, language)
	if err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	results := s.runTests(ctx, payload.Code, payload.LanguageID, quizPayload.TestInputs)

	quiz, submission, err := s.persist(ctx, studentID, payload, quizPayload)
	if err != nil {
		return dto.SubmitCodeResponse{}, err
	}

	s.publishActivity(ctx, ActivityEvent{
		Type:      ActivitySubmissionReceived,
		ProgramID: program.ID,
		StudentID: studentID,
		QuizID:    quiz.ID,
	})

	return dto.SubmitCodeResponse{
		ID:      submission.ID,
		QuizID:  quiz.ID,
		Results: results,
		Quiz:    quizPayload,
	}, nil
}

// generateQuiz calls the AI provider and parses the response. A malformed
// first response triggers exactly one retry with a stricter JSON-only
// instruction before the failure is surfaced.
func (s *submissionService) generateQuiz(ctx context.Context, studentCode, referenceCode, language string) (ai.QuizPayload, error) {
	input := ai.QuizInput{
		StudentCode:   studentCode,
		ReferenceCode: referenceCode,
		Language:      language,
	}

	raw, err := s.generator.GenerateQuiz(ctx, input)
	if err != nil {
		return ai.QuizPayload{}, fmt.Errorf("%w: %v", ErrQuizGenerationFailed, err)
	}

	payload, parseErr := ai.ParseQuizPayload(raw)
	if parseErr == nil {
		return payload, nil
	}

	s.logger.Warn().Err(parseErr).Msg("quiz response malformed, retrying with strict json instruction")

	input.StrictJSON = true
	raw, err = s.generator.GenerateQuiz(ctx, input)
	if err != nil {
		return ai.QuizPayload{}, fmt.Errorf("%w: %v", ErrQuizGenerationFailed, err)
	}

	payload, parseErr = ai.ParseQuizPayload(raw)
	if parseErr != nil {
		return ai.QuizPayload{}, parseErr
	}

	return payload, nil
}

// runTests executes the submitted code once per generated stdin. Runs fan
// out concurrently but results keep the input order, which callers rely on.
// A failed run becomes an error-flagged entry for that input only.
func (s *submissionService) runTests(ctx context.Context, code string, languageID int, inputs []string) []dto.TestRunResult {
	results := make([]dto.TestRunResult, len(inputs))

	var wg sync.WaitGroup
	for i, stdin := range inputs {
		wg.Add(1)
		go func(i int, stdin string) {
			defer wg.Done()

			run, err := s.runner.Run(ctx, judge.RunRequest{
				SourceCode: code,
				LanguageID: languageID,
				Stdin:      stdin,
			})
			if err != nil {
				s.logger.Warn().Err(err).Int("test_index", i).Msg("judge run failed")
				results[i] = dto.TestRunResult{Stdin: stdin, Stderr: err.Error()}
				return
			}

			results[i] = dto.TestRunResult{
				Stdin:         stdin,
				Stdout:        run.Stdout,
				Stderr:        run.Stderr,
				CompileOutput: run.CompileOutput,
			}
		}(i, stdin)
	}
	wg.Wait()

	return results
}

func (s *submissionService) persist(ctx context.Context, studentID uint, payload dto.SubmitCodeRequest, quizPayload ai.QuizPayload) (models.Quiz, models.Submission, error) {
	questions, err := json.Marshal(quizPayload.Quiz)
	if err != nil {
		return models.Quiz{}, models.Submission{}, fmt.Errorf("marshal questions: %w", err)
	}
	answerKey, err := json.Marshal(quizPayload.AnswerKey)
	if err != nil {
		return models.Quiz{}, models.Submission{}, fmt.Errorf("marshal answer key: %w", err)
	}
	feedback, err := json.Marshal(quizPayload.CodeErrors)
	if err != nil {
		return models.Quiz{}, models.Submission{}, fmt.Errorf("marshal feedback: %w", err)
	}

	quiz := models.Quiz{
		ProgramID: payload.ProgramID,
		StudentID: studentID,
		Questions: datatypes.JSON(questions),
		AnswerKey: datatypes.JSON(answerKey),
	}
	submission := models.Submission{
		ProgramID: payload.ProgramID,
		StudentID: studentID,
		Code:      payload.Code,
		HasError:  !quizPayload.CodeCorrect,
		Feedback:  datatypes.JSON(feedback),
	}

	if err := s.quizzes.CreateWithSubmission(ctx, &quiz, &submission); err != nil {
		return models.Quiz{}, models.Submission{}, err
	}

	return quiz, submission, nil
}

func (s *submissionService) publishActivity(ctx context.Context, event ActivityEvent) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("activity publish failed")
	}
}

func (s *submissionService) ListByProgramAndStudent(ctx context.Context, programID, studentID uint) ([]models.Submission, error) {
	return s.submissions.ListByProgramAndStudent(ctx, programID, studentID)
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	return s.submissions.ListByStudent(ctx, studentID)
}
