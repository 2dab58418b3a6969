package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/numerano/teams-backend/internal/model"
	"github.com/numerano/teams-backend/internal/service"
	"github.com/numerano/teams-backend/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	registration *service.RegistrationService
	chat         *service.ChatService

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithRegistrationService(r *service.RegistrationService) *Handler {
	h.registration = r
	return h
}

func (h *Handler) WithChatService(c *service.ChatService) *Handler {
	h.chat = c
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.healthChecker.HealthCheck())

	e.POST("/api/register", h.Register)
	e.POST("/api/chat", h.Chat)
	e.GET("/api/list-models", h.ListModels)
}

func (h *Handler) ListModels(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	models, svcErr := h.chat.Models(e.Request().Context())
	if svcErr != nil {
		l.Error("failed to list models", zap.String("code", string(svcErr.Code)))
		return h.transportError(e, svcErr)
	}

	return e.JSON(http.StatusOK, struct {
		Models []service.ModelInfo `json:"models"`
	}{Models: models})
}

func (h *Handler) Chat(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Messages []model.ChatMessage `json:"messages" validate:"required,min=1"`
	}

	if err := e.Bind(&req); err != nil {
		l.Error("invalid chat request", zap.Error(err))
		return e.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}
	if err := e.Validate(&req); err != nil {
		l.Error("invalid chat request", zap.Error(err))
		return e.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}

	reply, svcErr := h.chat.Ask(e.Request().Context(), req.Messages)
	if svcErr != nil {
		l.Error("chat request failed", zap.String("code", string(svcErr.Code)))
		return h.transportError(e, svcErr)
	}

	return e.JSON(http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: reply})
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := errorResponse{Message: err.Message}

	switch err.Code {
	case service.ErrorCodeValidation, service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeUnavailable:
		return e.JSON(http.StatusServiceUnavailable, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
