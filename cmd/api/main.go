package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/sahayak-labs/paathshala-api/internal/config"
	"github.com/sahayak-labs/paathshala-api/internal/database"
	"github.com/sahayak-labs/paathshala-api/internal/handler"
	"github.com/sahayak-labs/paathshala-api/internal/middleware"
	"github.com/sahayak-labs/paathshala-api/internal/repository"
	"github.com/sahayak-labs/paathshala-api/internal/router"
	"github.com/sahayak-labs/paathshala-api/internal/service"
	"github.com/sahayak-labs/paathshala-api/pkg/ai"
	cloud "github.com/sahayak-labs/paathshala-api/pkg/cloudinary"
	"github.com/sahayak-labs/paathshala-api/pkg/judge"
	"github.com/sahayak-labs/paathshala-api/pkg/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	aiClient, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create openai client: %v", err)
	}

	judgeClient, err := judge.NewClient(judge.Config{
		BaseURL:      cfg.JudgeBaseURL,
		AuthToken:    cfg.JudgeAuthToken,
		PollInterval: cfg.JudgePollInterval,
		PollDeadline: cfg.JudgePollDeadline,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to create judge client: %v", err)
	}

	// Narration is optional; without speech credentials programs are
	// created with text summaries only.
	var synthesizer speech.Synthesizer
	var uploader service.AudioUploader
	if cfg.AzureSpeechKey != "" {
		azure, err := speech.NewAzureSynthesizer(speech.AzureConfig{
			SubscriptionKey: cfg.AzureSpeechKey,
			Region:          cfg.AzureSpeechRegion,
			Logger:          logger,
		})
		if err != nil {
			log.Fatalf("failed to create speech synthesizer: %v", err)
		}
		synthesizer = azure

		cloudinary, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudinary
	}

	var activity service.ActivityPublisher
	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		activity = service.NewNATSActivityPublisher(natsConn, cfg.NATSActivitySubject, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	programRepo := repository.NewProgramRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTokenTTL, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, userRepo, programRepo, validate, logger)
	programService := service.NewProgramService(programRepo, summaryRepo, aiClient, synthesizer, uploader, redisClient, cfg.ProgramCacheTTL, validate, logger)
	submissionService := service.NewSubmissionService(programRepo, quizRepo, submissionRepo, aiClient, judgeClient, activity, validate, logger)
	quizService := service.NewQuizService(quizRepo, activity, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		ClassroomHandler:  handler.NewClassroomHandler(classroomService, logger),
		ProgramHandler:    handler.NewProgramHandler(programService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
