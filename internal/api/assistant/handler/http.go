package assistantHandler

import (
	assistantService "github.com/hudaib2009/AI-DR-Assistant/internal/api/assistant/service"
	"github.com/hudaib2009/AI-DR-Assistant/internal/middleware"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AssistantHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	assistantService assistantService.IAssistantService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	as assistantService.IAssistantService,
	utils utils.IUtils,
) *AssistantHandler {
	return &AssistantHandler{
		log:              log,
		validator:        validator,
		middleware:       middleware,
		assistantService: as,
		utils:            utils,
	}
}

func (h *AssistantHandler) Start(srv fiber.Router) {
	assistant := srv.Group("/assistant")

	assistant.Post("/chat", h.Chat)
}
