package server

import (
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/config"
	"github.com/lumenboard/lumenboard/internal/database"
	"github.com/lumenboard/lumenboard/internal/domain/admin"
	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/domain/device"
	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/permission"
	"github.com/lumenboard/lumenboard/internal/domain/preference"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/identity"
	"github.com/lumenboard/lumenboard/internal/migrations"
	"github.com/lumenboard/lumenboard/internal/ratelimit"
	"github.com/lumenboard/lumenboard/internal/realtime"
)

// Start initializes and starts the HTTP server
func Start(cfg *config.Config, env *config.Environment) error {
	initLogger(cfg.Logging.Level)

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	if err := database.ConnectDB(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	slog.Info("Database connected successfully")

	if err := migrations.RunMigrations(database.DB); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}
	slog.Info("Migrations completed successfully")

	deps, err := buildDependencies(cfg, env)
	if err != nil {
		slog.Error("Failed to wire services", "error", err)
		return err
	}

	SetupRoutes(app, deps)

	addr := cfg.Server.Address()
	slog.Info("Server starting", "address", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		return err
	}

	return nil
}

// buildDependencies constructs the service graph on top of the shared DB
func buildDependencies(cfg *config.Config, env *config.Environment) (*Dependencies, error) {
	tokens, err := auth.NewTokenService(env.JWTSecret, &cfg.App, &cfg.Auth)
	if err != nil {
		return nil, err
	}

	users := user.NewService(user.NewRepository(database.DB))
	sessions := session.NewService(session.NewRepository(database.DB))
	auditRepo := audit.NewRepository(database.DB)
	verifier := identity.NewGoogleVerifier(&cfg.Upstream)

	authService := auth.NewService(users, sessions, tokens, verifier, auditRepo,
		cfg.Auth.AllowedDomains, cfg.Auth.AuditRetention())

	devices := device.NewService(device.NewRepository(database.DB), users, sessions,
		tokens, auditRepo, cfg.Auth.DeviceCodeTTL())

	groups := group.NewService(group.NewRepository(database.DB), users)
	perms := permission.NewService(permission.NewRepository(database.DB), groups)
	prefs := preference.NewService(preference.NewRepository(database.DB))

	hub := realtime.NewHub()

	return &Dependencies{
		Config:   cfg,
		Tokens:   tokens,
		Users:    users,
		Sessions: sessions,
		Limiter:  ratelimit.NewLimiter(),
		Hub:      hub,
		Perms:    perms,

		AuthHandler:   auth.NewHandler(authService, sessions, auditRepo),
		DeviceHandler: device.NewHandler(devices, sessions, auditRepo),
		PrefsHandler:  preference.NewHandler(prefs, hub, auditRepo),
		GroupHandler:  group.NewHandler(groups, auditRepo),
		PermHandler:   permission.NewHandler(perms, auditRepo),
		AdminHandler:  admin.NewHandler(users, sessions, perms, groups, auditRepo),
	}, nil
}

func initLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
