package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/paathshala-api/internal/dto"
	"github.com/sahayak-labs/paathshala-api/internal/service"
	"github.com/sahayak-labs/paathshala-api/internal/utils"
)

// ProgramHandler exposes reference program management endpoints.
type ProgramHandler struct {
	service service.ProgramService
	logger  zerolog.Logger
}

// NewProgramHandler constructs the handler.
func NewProgramHandler(service service.ProgramService, logger zerolog.Logger) *ProgramHandler {
	return &ProgramHandler{
		service: service,
		logger:  logger.With().Str("component", "program_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ProgramHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/class/:id", h.listByClass)
	router.Get("/:id", h.detail)
	router.Get("/:id/summaries", h.summaries)
	router.Get("/:id/summaries/:lang", h.summaryByLanguage)
	router.Post("/", professorOnly, h.create)
	router.Post("/:id/summaries/regenerate", professorOnly, h.regenerateSummaries)
	router.Delete("/:id", professorOnly, h.delete)
}

func (h *ProgramHandler) list(c *fiber.Ctx) error {
	programs, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "programs retrieved", programs)
}

func (h *ProgramHandler) listByClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	programs, err := h.service.ListByClass(c.Context(), classID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "programs retrieved", programs)
}

func (h *ProgramHandler) detail(c *fiber.Ctx) error {
	programID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Detail(c.Context(), programID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "program retrieved", detail)
}

func (h *ProgramHandler) summaries(c *fiber.Ctx) error {
	programID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summaries, err := h.service.SummariesByProgram(c.Context(), programID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "summaries retrieved", summaries)
}

func (h *ProgramHandler) summaryByLanguage(c *fiber.Ctx) error {
	programID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.SummaryByProgramAndLanguage(c.Context(), programID, c.Params("lang"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "summary retrieved", summary)
}

func (h *ProgramHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateProgramRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	program, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "program created", program)
}

func (h *ProgramHandler) regenerateSummaries(c *fiber.Ctx) error {
	programID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summaries, err := h.service.RegenerateSummaries(c.Context(), programID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "summaries regenerated", summaries)
}

func (h *ProgramHandler) delete(c *fiber.Ctx) error {
	programID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), programID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "program deleted", nil)
}

func (h *ProgramHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSummaryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSummaryGenerationFailed):
		return utils.SendError(c, fiber.StatusBadGateway, "summary generation failed")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("program operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
