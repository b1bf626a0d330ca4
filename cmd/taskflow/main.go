// Command taskflow runs the TaskFlow API server.
//
// @title                       TaskFlow API
// @version                     1.0
// @description                 Accounts, password reset, admin user management and per-user task boards.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/api"
	"github.com/taskflow/taskflow/internal/core/ports"
	"github.com/taskflow/taskflow/internal/core/service"
	"github.com/taskflow/taskflow/internal/infrastructure/db/memory"
	mongodb "github.com/taskflow/taskflow/internal/infrastructure/db/mongo"
	redisdb "github.com/taskflow/taskflow/internal/infrastructure/db/redis"
	"github.com/taskflow/taskflow/internal/infrastructure/http/handlers"
	"github.com/taskflow/taskflow/internal/infrastructure/mail"
	"github.com/taskflow/taskflow/internal/infrastructure/queue"
	"github.com/taskflow/taskflow/internal/pkg/config"
	"github.com/taskflow/taskflow/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "taskflow",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("taskflow stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Mongo: users and the auth audit log ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	userRepo := mongodb.NewUserRepository(db)
	eventRepo := mongodb.NewAuthEventRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	readiness := map[string]handlers.Check{"mongo": handlers.MongoCheck(db)}

	// --- Task storage, change feed and workspace documents ---
	var (
		taskStore      ports.TaskStore
		taskFeed       ports.TaskFeed
		workspaceStore ports.WorkspaceStore
	)
	switch cfg.TaskBackend {
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		taskStore = redisdb.NewTaskStore(rdb)
		taskFeed = redisdb.NewFeed(rdb, logger.Component("task_feed"))
		workspaceStore = redisdb.NewWorkspaceStore(rdb)
		readiness["redis"] = handlers.RedisCheck(rdb)
	default:
		taskStore = memory.NewTaskStore()
		taskFeed = memory.NewFeed(logger.Component("task_feed"))
		workspaceStore = memory.NewWorkspaceStore()
	}
	log.Info().Str("backend", cfg.TaskBackend).Msg("task storage ready")

	// --- Mail ---
	var mailer ports.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger.Component("mailer"))
	} else {
		log.Warn().Msg("SMTP_HOST not set, password reset links are only logged")
		mailer = mail.NewLogMailer(logger.Component("mailer"))
	}

	// --- Services ---
	auditService := service.NewAuditService(eventRepo, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditService, logger.Component("audit_dispatcher"))
	dispatcher.Start(ctx)

	authService := service.NewAuthService(userRepo, mailer, dispatcher, service.AuthOptions{
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.Auth.SessionTTL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		ResetLinkBase: cfg.Auth.ResetLinkBase,
	}, logger.Component("auth"))

	e := api.NewRouter(api.Dependencies{
		Log:           logger.Component("http"),
		Auth:          authService,
		Users:         service.NewUserService(userRepo, logger.Component("users")),
		Audit:         auditService,
		Tasks:         service.NewTaskService(taskStore, taskFeed, logger.Component("tasks")),
		Workspace:     service.NewWorkspaceService(workspaceStore, logger.Component("workspace")),
		Readiness:     readiness,
		AuthRateLimit: cfg.RateLimit,
	})

	// --- Serve until a signal arrives ---
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
	serveErr := api.Serve(ctx, e, ":"+cfg.Port, shutdownTimeout)
	log.Info().Msg("shutting down")

	stop()
	dispatcher.Wait()
	log.Info().Msg("audit queue drained")
	return serveErr
}
