package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/config"
	"github.com/taskhive-io/taskhive-engine/pkg/database"
	"github.com/taskhive-io/taskhive-engine/pkg/handlers"
	"github.com/taskhive-io/taskhive-engine/pkg/mail"
	"github.com/taskhive-io/taskhive-engine/pkg/middleware"
	"github.com/taskhive-io/taskhive-engine/pkg/repositories"
	"github.com/taskhive-io/taskhive-engine/pkg/services"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Database),
		zap.Bool("mail_enabled", cfg.Mail.Enabled()))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)

	// Auth plumbing
	tokenService := auth.NewTokenService(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.BaseURL)
	authService := auth.NewAuthService(tokenService, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	verifier, err := auth.NewJWKSVerifier(&auth.VerifierConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		Issuer:             cfg.Auth.Issuer,
		JWKSURL:            cfg.Auth.JWKSURL,
	})
	if err != nil {
		logger.Fatal("Failed to create assertion verifier", zap.Error(err))
	}
	defer verifier.Close()

	mailer := newMailer(cfg, logger)

	// Services
	identityService := services.NewIdentityService(userRepo, verifier, tokenService, logger)
	projectService := services.NewProjectService(projectRepo, logger)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, logger)
	invitationService := services.NewInvitationService(invitationRepo, projectRepo, userRepo, mailer, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(identityService, cfg, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(identityService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTasksHandler(taskService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewInvitationsHandler(invitationService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting taskhive-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}

func newMailer(cfg *config.Config, logger *zap.Logger) mail.Mailer {
	if !cfg.Mail.Enabled() {
		logger.Warn("SMTP not configured; invitation emails will be logged only")
		return mail.NewNoopMailer(logger)
	}

	mailer, err := mail.NewSMTPMailer(&mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		BaseURL:  cfg.BaseURL,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create mailer", zap.Error(err))
	}
	return mailer
}
