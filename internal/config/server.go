package config

import (
	"fmt"
	"os"

	"github.com/hudaib2009/AI-DR-Assistant/database/postgres"
	assistantHandler "github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant/handler"
	assistantService "github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant/service"
	screeningHandler "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/handler"
	screeningRepository "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/repository"
	screeningService "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/service"
	"github.com/hudaib2009/AI-DR-Assistant/internal/middleware"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/classifier"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/gemini"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/redis"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/s3"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	geminiClient gemini.IGemini
	s3Client     s3.ItfS3
	classifier   classifier.IClassifier
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithGeminiClient degrades instead of failing: a missing API key or context
// file leaves the assistant unavailable while the rest of the API keeps
// serving.
func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("Gemini client not configured, assistant will be unavailable: %v", err)
			}
			return nil
		}
		s.geminiClient = client
		return nil
	}
}

// WithClassifier loads the screening model once at startup. A load failure is
// logged by the loader and leaves predictions unavailable; the server still
// starts so the health endpoint can report the state.
func WithClassifier() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the classifier")
		}

		modelPath := os.Getenv("CLASSIFIER_MODEL_PATH")
		if modelPath == "" {
			modelPath = "./storage/models/dr_model.onnx"
		}

		modelName := os.Getenv("CLASSIFIER_MODEL_NAME")
		if modelName == "" {
			modelName = "dr-screening-cnn"
		}

		s.classifier = classifier.Load(modelPath, modelName, s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Screening Domain
	screeningRepo := screeningRepository.New(s.db, s.log)
	screeningServices := screeningService.New(s.log, screeningRepo, s.classifier, s.redisServer, s.s3Client, s.utils)
	screeningHandlers := screeningHandler.New(s.log, s.validator, s.middleware, screeningServices, s.utils)

	// Assistant Domain
	assistantServices := assistantService.New(s.log, s.geminiClient)
	assistantHandlers := assistantHandler.New(s.log, s.validator, s.middleware, assistantServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, screeningHandlers, assistantHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewCORSMiddleware())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.classifier != nil {
			s.classifier.Close()
		}
		return err
	}

	return nil
}

func (s *Server) Shutdown() {
	if s.classifier != nil {
		s.classifier.Close()
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":      "Server is Healthy!",
			"model_loaded": s.classifier != nil && s.classifier.Available(),
		})
	})
}
