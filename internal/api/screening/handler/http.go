package screeningHandler

import (
	screeningService "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/service"
	"github.com/hudaib2009/AI-DR-Assistant/internal/middleware"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ScreeningHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	screeningService screeningService.IScreeningService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ss screeningService.IScreeningService,
	utils utils.IUtils,
) *ScreeningHandler {
	return &ScreeningHandler{
		log:              log,
		validator:        validator,
		middleware:       middleware,
		screeningService: ss,
		utils:            utils,
	}
}

func (h *ScreeningHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	screenings := srv.Group("/screenings")

	screenings.Post("/", h.middleware.NewRateLimiter, h.CreateScreening)
	screenings.Get("", h.GetAllScreenings)

	screenings.Use("/live", wsMiddleware)
	screenings.Get("/live", websocket.New(h.handleLiveScreening))

	screenings.Get("/:id", h.GetScreeningByID)
	screenings.Delete("/:id", h.DeleteScreening)
}
