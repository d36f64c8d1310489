package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/wneessen/go-mail"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/events"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
	"github.com/C4NU/hanavi-schedule/internal/push"
	"github.com/C4NU/hanavi-schedule/internal/repository"

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

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to the database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

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
	 * Create the push sender and the dispatcher
	 **********************************************/
	sender, err := push.NewFCMSender(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create the push sender", "error", err)
		return
	}

	dispatcher := notifier.NewDispatcher(state, repo, sender, cfg.Push.BatchSize, cfg.Push.Icon)

	/**********************************************
	 * Create the mail client for delivery reports
	 **********************************************/
	var mailClient *mail.Client
	if cfg.Email.ReportTo != "" {
		mailClient, err = mail.NewClient(cfg.Email.SMTP.Host,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithSSL(),
			mail.WithPort(cfg.Email.SMTP.Port),
			mail.WithUsername(cfg.Email.SMTP.Username),
			mail.WithPassword(cfg.Email.SMTP.Password),
		)
		if err != nil {
			logger.Error("failed to create the mail client", "error", err)
			return
		}
		defer mailClient.Close()

		dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
		defer cancel()
		if err := mailClient.DialWithContext(dialCtx); err != nil {
			logger.Error("failed to connect to the mail server", "error", err)
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

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		events.QueueName,
		"",    // consumer tag, assigned by the broker
		false, // autoAck
		false, // exclusive
		false, // noLocal, unsupported by RabbitMQ, must be false
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error("failed to consume messages", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("received event", slog.String("message", string(msg.Body)))

				ev := domain.ChangeEvent{}
				if err := json.Unmarshal(msg.Body, &ev); err != nil {
					logger.Error("failed to decode event", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if ev.Type != domain.EventScheduleChanged {
					logger.Error("unsupported event type", slog.String("type", ev.Type))
					_ = msg.Nack(false, false)
					continue
				}

				// Mark first, then deliver. If delivery dies between the two,
				// the pending flag survives and the next event or notify run
				// picks it up.
				if err := state.MarkPending(ctx, ev.Hash); err != nil {
					logger.Error("failed to mark pending notification", slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}

				report, err := dispatcher.NotifyPending(ctx)
				if err != nil {
					logger.Error("failed to send notifications", slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}
				logger.Info("notifications dispatched",
					"success", report.SuccessCount,
					"failed", report.FailureCount,
					"pruned", report.PrunedCount,
					"hash", report.Hash,
				)

				if mailClient != nil {
					if err := sendReport(mailClient, cfg, ev, report); err != nil {
						// The notification already went out, a lost report is
						// only worth a log line.
						logger.Error("failed to send the delivery report", slog.String("error", err.Error()))
					}
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for events... (press CTRL+C to exit)")
	<-sigChan

	slog.Info("shutting down notify worker...")
	cancel()
	wg.Wait()
	slog.Info("notify worker stopped")
}

func sendReport(client *mail.Client, cfg *config.Config, ev domain.ChangeEvent, report *domain.DispatchReport) error {
	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		return err
	}
	if err := m.To(cfg.Email.ReportTo); err != nil {
		return err
	}

	m.Subject(fmt.Sprintf("Schedule update dispatched (%s)", ev.WeekRange))
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Source: %s\nWeek: %s\nHash: %s\n\n%s\nSuccess: %d\nFailed: %d\nPruned tokens: %d\n",
		ev.Source, ev.WeekRange, ev.Hash,
		report.Message, report.SuccessCount, report.FailureCount, report.PrunedCount,
	))

	return client.DialAndSend(m)
}
