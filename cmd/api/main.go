package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/events"
	"github.com/C4NU/hanavi-schedule/internal/handler"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
	"github.com/C4NU/hanavi-schedule/internal/push"
	"github.com/C4NU/hanavi-schedule/internal/repository"
	"github.com/C4NU/hanavi-schedule/internal/sheets"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * Create logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * Load configuration
	 **********************************************/
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return
	}

	/**********************************************
	 * Connect to the database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database connection pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open only creates the pool object, it does not dial, so ping
	// explicitly to fail fast on a bad DSN.
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to the database", "error", err)
		return
	}

	/**********************************************
	 * Create repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * Ensure the initial admin account exists
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash the initial admin password", "error", err)
		return
	}
	initialAdmin := &domain.Account{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleAdmin,
	}
	if err := repo.CreateAccount(initialAdmin); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "accounts_username_key":
				// Already seeded on a previous start, nothing to do.
			default:
				logger.Error("failed to create the initial admin", "error", err)
				return
			}
		default:
			logger.Error("failed to create the initial admin", "error", err)
			return
		}
	}

	/**********************************************
	 * Connect to RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open a channel", "error", err)
		return
	}
	defer ch.Close()

	if err := events.DeclareQueue(ch); err != nil {
		logger.Error("failed to declare the event queue", "error", err)
		return
	}

	publisher := events.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * Connect to Redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	state := notifier.NewRedisStateStore(rdb, cfg.Redis.StateKey, time.Duration(cfg.Redis.OperationTimeout)*time.Second)

	/**********************************************
	 * Create the schedule source and the push sender
	 **********************************************/
	source, err := sheets.NewClient(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create the sheets client", "error", err)
		return
	}

	sender, err := push.NewFCMSender(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create the push sender", "error", err)
		return
	}

	detector := notifier.NewDetector(source, state)
	dispatcher := notifier.NewDispatcher(state, repo, sender, cfg.Push.BatchSize, cfg.Push.Icon)

	/**********************************************
	 * Create handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, publisher, detector, dispatcher)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * Optional in-process detection schedule
	 **********************************************/
	if cfg.Cron.Spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Cron.Spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Sheets.FetchTimeout+cfg.Redis.OperationTimeout)*time.Second)
			defer cancel()

			result, err := detector.Detect(ctx)
			if err != nil {
				logger.Error("scheduled detection failed", "error", err)
				return
			}
			if result.Changed {
				if err := publisher.PublishScheduleChanged(domain.ChangeEvent{
					Type:   domain.EventScheduleChanged,
					Hash:   result.Hash,
					Source: "cron",
				}); err != nil {
					logger.Error("failed to publish scheduled change event", "error", err)
				}
			}
		}); err != nil {
			logger.Error("invalid cron spec", "spec", cfg.Cron.Spec, "error", err)
			return
		}
		c.Start()
		defer c.Stop()
		logger.Info("in-process detection schedule started", "spec", cfg.Cron.Spec)
	}

	/**********************************************
	 * Start the HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
