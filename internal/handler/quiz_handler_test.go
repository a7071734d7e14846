package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
	"github.com/sahayak-labs/paathshala-api/internal/service"
)

type stubQuizService struct {
	markResponse dto.MarkQuizResponse
	markErr      error
	markPayload  dto.MarkQuizRequest
}

func (s *stubQuizService) Mark(ctx context.Context, payload dto.MarkQuizRequest) (dto.MarkQuizResponse, error) {
	s.markPayload = payload
	if s.markErr != nil {
		return dto.MarkQuizResponse{}, s.markErr
	}
	return s.markResponse, nil
}

func (s *stubQuizService) Get(ctx context.Context, id uint) (models.Quiz, error) {
	return models.Quiz{ID: id}, nil
}

func (s *stubQuizService) GetByProgramAndStudent(ctx context.Context, programID, studentID uint) (models.Quiz, error) {
	if programID == 404 {
		return models.Quiz{}, service.ErrQuizNotFound
	}
	return models.Quiz{ID: 5, ProgramID: programID, StudentID: studentID}, nil
}

func (s *stubQuizService) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	return []models.Quiz{{ID: 1}}, nil
}

func (s *stubQuizService) ListByProgram(ctx context.Context, programID uint) ([]repository.QuizWithStudent, error) {
	return []repository.QuizWithStudent{{Quiz: models.Quiz{ID: 1}, Username: "alice"}}, nil
}

func (s *stubQuizService) ListByStudent(ctx context.Context, studentID uint) ([]repository.QuizWithProgram, error) {
	return []repository.QuizWithProgram{{Quiz: models.Quiz{ID: 1}, ProgramName: "Factorial"}}, nil
}

func newQuizApp(svc service.QuizService) *fiber.App {
	app := fiber.New()
	handler := NewQuizHandler(svc, zerolog.New(io.Discard))
	handler.Register(app.Group("/quiz"))
	return app
}

func TestMarkReturnsScore(t *testing.T) {
	svc := &stubQuizService{markResponse: dto.MarkQuizResponse{QuizID: 5, Marks: 8, Total: 10}}
	app := newQuizApp(svc)

	answers, _ := json.Marshal(map[string]string{"0": "A", "1": "B"})
	resp := postJSON(t, app, "/quiz/mark", dto.MarkQuizRequest{QuizID: 5, Answers: answers})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                 `json:"success"`
		Data    dto.MarkQuizResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, 8, payload.Data.Marks)
	require.Equal(t, 10, payload.Data.Total)

	require.Equal(t, uint(5), svc.markPayload.QuizID)
}

func TestMarkMapsErrorsToStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"quiz missing", service.ErrQuizNotFound, fiber.StatusNotFound},
		{"answers not an object", service.ErrInvalidAnswerFormat, fiber.StatusBadRequest},
		{"already graded", service.ErrQuizAlreadyGraded, fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newQuizApp(&stubQuizService{markErr: tc.err})
			answers, _ := json.Marshal(map[string]string{"0": "A"})
			resp := postJSON(t, app, "/quiz/mark", dto.MarkQuizRequest{QuizID: 5, Answers: answers})
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestMarkRejectsMalformedBody(t *testing.T) {
	app := newQuizApp(&stubQuizService{})

	req := httptest.NewRequest(http.MethodPost, "/quiz/mark", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetQuizByProgramAndUser(t *testing.T) {
	app := newQuizApp(&stubQuizService{})

	req := httptest.NewRequest(http.MethodGet, "/quiz/program/7/user/3", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/quiz/program/404/user/3", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestQuizListRoutes(t *testing.T) {
	app := newQuizApp(&stubQuizService{})

	for _, path := range []string{"/quiz/class/1", "/quiz/program/7", "/quiz/user/3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}
