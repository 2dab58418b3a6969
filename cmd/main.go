package main

import (
	"context"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/numerano/teams-backend/internal/api"
	"github.com/numerano/teams-backend/internal/config"
	"github.com/numerano/teams-backend/internal/db"
	"github.com/numerano/teams-backend/internal/mail"
	"github.com/numerano/teams-backend/internal/repository"
	"github.com/numerano/teams-backend/internal/service"
	"github.com/numerano/teams-backend/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	transactor := db.NewPgxTransactor(pool)
	teamRepo := repository.NewPgxTeamRepository(pool)

	mailer := mail.NewSMTPSender(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	registration := service.NewRegistrationService(transactor).
		WithTeamRepo(teamRepo).
		WithMailer(mailer)

	chat := service.NewChatService().WithModel(cfg.Chat.Model)
	if cfg.Chat.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.Chat.APIKey)
		if cfg.Chat.BaseURL != "" {
			clientCfg.BaseURL = cfg.Chat.BaseURL
		}
		chat = chat.WithClient(openai.NewClientWithConfig(clientCfg))
	} else {
		logger.Warn("chat api key not set, assistant disabled")
	}

	healthChecker := api.MustNewHealthChecker(health.Config{
		Name:    "postgres",
		Timeout: 3 * time.Second,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})

	e := echo.New()

	handler := api.NewHandler(logger).
		WithRegistrationService(registration).
		WithChatService(chat).
		WithHealthChecker(healthChecker)

	handler.RegisterRoutes(e)

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err = e.Start(cfg.Addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
