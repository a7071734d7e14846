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

// ClassroomHandler exposes classroom management endpoints.
type ClassroomHandler struct {
	service service.ClassroomService
	logger  zerolog.Logger
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(service service.ClassroomService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		service: service,
		logger:  logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ClassroomHandler) Register(router fiber.Router, professorOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.detail)
	router.Post("/", professorOnly, h.create)
	router.Delete("/:id", professorOnly, h.delete)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	classrooms, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classrooms retrieved", classrooms)
}

func (h *ClassroomHandler) detail(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Detail(c.Context(), classID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classroom retrieved", detail)
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateClassroomRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	professorID := userIDFromContext(c)
	if professorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	classroom, err := h.service.Create(c.Context(), professorID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "classroom created", classroom)
}

func (h *ClassroomHandler) delete(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), classID); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "classroom deleted", nil)
}

func (h *ClassroomHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("classroom operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
