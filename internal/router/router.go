package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahayak-labs/paathshala-api/internal/config"
	"github.com/sahayak-labs/paathshala-api/internal/handler"
	"github.com/sahayak-labs/paathshala-api/internal/middleware"
	"github.com/sahayak-labs/paathshala-api/internal/models"
	"github.com/sahayak-labs/paathshala-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ClassroomHandler  *handler.ClassroomHandler
	ProgramHandler    *handler.ProgramHandler
	SubmissionHandler *handler.SubmissionHandler
	QuizHandler       *handler.QuizHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	professorOnly := middleware.RequireRole(models.RoleProfessor)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	if deps.ClassroomHandler != nil {
		classrooms := api.Group("/classrooms", jwtMiddleware)
		deps.ClassroomHandler.Register(classrooms, professorOnly)
	}

	if deps.ProgramHandler != nil {
		programs := api.Group("/programs", jwtMiddleware)
		deps.ProgramHandler.Register(programs, professorOnly)
	}

	if deps.SubmissionHandler != nil {
		// Submissions fan out to the judge and the quiz generator, so
		// throttle each student to a handful of runs per minute.
		submissions := api.Group("/submissions", jwtMiddleware,
			middleware.RateLimit("submissions", 5, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.QuizHandler != nil {
		quizzes := api.Group("/quiz", jwtMiddleware)
		deps.QuizHandler.Register(quizzes)
	}
}
