package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
	"github.com/sahayak-labs/paathshala-api/pkg/ai"
	"github.com/sahayak-labs/paathshala-api/pkg/speech"
)

// ErrSummaryNotFound indicates no summary exists for the program/language.
var ErrSummaryNotFound = errors.New("summary not found")

// ErrSummaryGenerationFailed wraps failures in the summary/narration
// pipeline.
var ErrSummaryGenerationFailed = errors.New("summary generation failed")

// summaryLanguage binds a language tag to its prompt name and narration
// voice.
type summaryLanguage struct {
	Tag      string
	Language string
	Voice    string
}

var summaryLanguages = []summaryLanguage{
	{Tag: "en", Language: "English", Voice: "en-IN-NeerjaNeural"},
	{Tag: "ka", Language: "Kannada", Voice: "kn-IN-SapnaNeural"},
	{Tag: "fr", Language: "French", Voice: "fr-FR-RemyMultilingualNeural"},
	{Tag: "de", Language: "German", Voice: "de-DE-SeraphinaMultilingualNeural"},
}

// AudioUploader stores a narration stream and returns its public URL.
type AudioUploader interface {
	UploadAudio(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ProgramService manages reference programs and their translated summaries.
type ProgramService interface {
	List(ctx context.Context) ([]models.Program, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Program, error)
	Detail(ctx context.Context, id uint) (dto.ProgramDetailResponse, error)
	Create(ctx context.Context, payload dto.CreateProgramRequest) (models.Program, error)
	RegenerateSummaries(ctx context.Context, id uint) ([]models.Summary, error)
	Delete(ctx context.Context, id uint) error
	SummariesByProgram(ctx context.Context, programID uint) ([]models.Summary, error)
	SummaryByProgramAndLanguage(ctx context.Context, programID uint, language string) (models.Summary, error)
}

type programService struct {
	programs    repository.ProgramRepository
	summaries   repository.SummaryRepository
	summarizer  ai.Summarizer
	synthesizer speech.Synthesizer
	uploader    AudioUploader
	cache       *redis.Client
	cacheTTL    time.Duration
	sanitizer   *bluemonday.Policy
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewProgramService constructs the program service.
func NewProgramService(programs repository.ProgramRepository, summaries repository.SummaryRepository, summarizer ai.Summarizer, synthesizer speech.Synthesizer, uploader AudioUploader, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) ProgramService {
	return &programService{
		programs:    programs,
		summaries:   summaries,
		summarizer:  summarizer,
		synthesizer: synthesizer,
		uploader:    uploader,
		cache:       cache,
		cacheTTL:    cacheTTL,
		sanitizer:   bluemonday.StrictPolicy(),
		validator:   validate,
		logger:      logger.With().Str("component", "program_service").Logger(),
	}
}

func (s *programService) List(ctx context.Context) ([]models.Program, error) {
	return s.programs.List(ctx)
}

func (s *programService) ListByClass(ctx context.Context, classID uint) ([]models.Program, error) {
	return s.programs.ListByClass(ctx, classID)
}

func (s *programService) Detail(ctx context.Context, id uint) (dto.ProgramDetailResponse, error) {
	if cached, ok := s.cachedDetail(ctx, id); ok {
		return cached, nil
	}

	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgramDetailResponse{}, ErrProgramNotFound
		}
		return dto.ProgramDetailResponse{}, err
	}

	summaries, err := s.summaries.ListByProgram(ctx, id)
	if err != nil {
		return dto.ProgramDetailResponse{}, err
	}

	detail := dto.ProgramDetailResponse{Program: program, Summaries: summaries}
	s.storeDetail(ctx, id, detail)

	return detail, nil
}

func (s *programService) Create(ctx context.Context, payload dto.CreateProgramRequest) (models.Program, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Program{}, err
	}

	program := models.Program{
		Title:       s.sanitizer.Sanitize(payload.Title),
		Description: s.sanitizer.Sanitize(payload.Description),
		Code:        payload.Code,
		ClassID:     payload.ClassID,
	}

	if err := s.programs.Create(ctx, &program); err != nil {
		return models.Program{}, err
	}

	if _, err := s.generateSummaries(ctx, program.ID, program.Code); err != nil {
		return models.Program{}, err
	}

	return program, nil
}

func (s *programService) RegenerateSummaries(ctx context.Context, id uint) ([]models.Summary, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	return s.generateSummaries(ctx, program.ID, program.Code)
}

func (s *programService) Delete(ctx context.Context, id uint) error {
	if err := s.programs.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDetail(ctx, id)
	return nil
}

func (s *programService) SummariesByProgram(ctx context.Context, programID uint) ([]models.Summary, error) {
	return s.summaries.ListByProgram(ctx, programID)
}

func (s *programService) SummaryByProgramAndLanguage(ctx context.Context, programID uint, language string) (models.Summary, error) {
	summary, err := s.summaries.GetByProgramAndLanguage(ctx, programID, language)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Summary{}, ErrSummaryNotFound
		}
		return models.Summary{}, err
	}
	return summary, nil
}

// generateSummaries builds a translated explanation and narration for every
// supported language, then swaps the stored set atomically.
func (s *programService) generateSummaries(ctx context.Context, programID uint, code string) ([]models.Summary, error) {
	generated := make([]models.Summary, 0, len(summaryLanguages))

	for _, lang := range summaryLanguages {
		raw, err := s.summarizer.Summarize(ctx, code, lang.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSummaryGenerationFailed, lang.Tag, err)
		}

		payload, err := ai.ParseSummaryPayload(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSummaryGenerationFailed, lang.Tag, err)
		}

		audioURL, err := s.narrate(ctx, payload.Translation, lang.Voice)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSummaryGenerationFailed, lang.Tag, err)
		}

		generated = append(generated, models.Summary{
			ProgramID: programID,
			Language:  lang.Tag,
			Summary:   payload.Translation,
			Algorithm: payload.Algorithm,
			AudioURL:  audioURL,
		})
	}

	if err := s.summaries.Replace(ctx, programID, generated); err != nil {
		return nil, err
	}

	s.invalidateDetail(ctx, programID)
	return generated, nil
}

// narrate synthesizes the translated summary and uploads the mp3. The
// provider's bytes are sniffed before upload; anything that is not mpeg
// audio is refused rather than hosted.
func (s *programService) narrate(ctx context.Context, text, voice string) (string, error) {
	if s.synthesizer == nil || s.uploader == nil {
		return "", nil
	}

	audio, err := s.synthesizer.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}

	if kind := mimetype.Detect(audio); !kind.Is("audio/mpeg") {
		return "", fmt.Errorf("synthesized narration is %s, not audio/mpeg", kind.String())
	}

	name := fmt.Sprintf("narration-%s", uuid.NewString())
	return s.uploader.UploadAudio(ctx, name, bytes.NewReader(audio))
}

func (s *programService) detailCacheKey(id uint) string {
	return fmt.Sprintf("program:detail:%d", id)
}

func (s *programService) cachedDetail(ctx context.Context, id uint) (dto.ProgramDetailResponse, bool) {
	if s.cache == nil {
		return dto.ProgramDetailResponse{}, false
	}

	raw, err := s.cache.Get(ctx, s.detailCacheKey(id)).Bytes()
	if err != nil {
		return dto.ProgramDetailResponse{}, false
	}

	var detail dto.ProgramDetailResponse
	if err := json.Unmarshal(raw, &detail); err != nil {
		return dto.ProgramDetailResponse{}, false
	}
	return detail, true
}

func (s *programService) storeDetail(ctx context.Context, id uint, detail dto.ProgramDetailResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.detailCacheKey(id), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("program_id", id).Msg("program detail cache write failed")
	}
}

func (s *programService) invalidateDetail(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.detailCacheKey(id)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("program_id", id).Msg("program detail cache invalidation failed")
	}
}
