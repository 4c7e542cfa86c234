// Command server runs the TaskNest HTTP API.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/postgres"
	gormlib "gorm.io/gorm"

	"github.com/tasknest/tasknest"
	"github.com/tasknest/tasknest/config"
	"github.com/tasknest/tasknest/email"
	"github.com/tasknest/tasknest/oauth2"
	"github.com/tasknest/tasknest/stores"
	gormstore "github.com/tasknest/tasknest/stores/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	userStore, todoStore := buildStores(cfg, logger)

	tokens := tasknest.NewTokenIssuer(cfg.JWTSecret, "tasknest", cfg.JWTExpire)

	var sender tasknest.Sender
	if cfg.SMTPHost != "" {
		sender = email.NewSMTPSender(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	} else {
		logger.Warn("SMTP not configured, logging emails to console")
		sender = &tasknest.ConsoleSender{Logger: logger}
	}

	auth := &tasknest.AuthService{
		Users:          userStore,
		Tokens:         tokens,
		Email:          sender,
		Logger:         logger,
		BaseURL:        cfg.ClientURL,
		EchoResetToken: !cfg.IsProd(),
	}

	session := scs.New()
	session.Lifetime = 15 * time.Minute
	session.Cookie.Secure = cfg.IsProd()

	server := &tasknest.Server{
		Auth:            auth,
		Bridge:          &tasknest.OAuthBridge{Users: userStore, Logger: logger},
		Google:          oauth2.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL),
		Todos:           todoStore,
		Users:           userStore,
		Session:         session,
		Logger:          logger,
		CookieSecure:    cfg.IsProd(),
		OAuthSuccessURL: cfg.ClientURL,
	}

	addr := ":" + cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "addr", addr, "env", cfg.Env)
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildStores opens the configured database, falling back to filesystem
// storage when no DSN is set.
func buildStores(cfg config.Config, logger *slog.Logger) (tasknest.UserStore, tasknest.TodoStore) {
	if cfg.DatabaseDSN == "" {
		logger.Warn("DATABASE_DSN not set, using filesystem storage", "path", cfg.StoragePath)
		return stores.NewFSUserStore(cfg.StoragePath), stores.NewFSTodoStore(cfg.StoragePath)
	}

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey, which the stores rely on.
	db, err := gormlib.Open(postgres.Open(cfg.DatabaseDSN), &gormlib.Config{TranslateError: true})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	return gormstore.NewUserStore(db), gormstore.NewTodoStore(db)
}
