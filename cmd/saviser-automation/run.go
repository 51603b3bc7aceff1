package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/robfig/cron/v3"
	"github.com/saviser/automation/pkg/cmd"
	"github.com/saviser/automation/pkg/engine"
	"github.com/saviser/automation/pkg/log"
	"github.com/saviser/automation/pkg/notify"
	"github.com/saviser/automation/pkg/otelhelper"
	"github.com/saviser/automation/pkg/protocol"
	"github.com/saviser/automation/pkg/scheduler"
	"github.com/saviser/automation/pkg/web"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the automation engine and its HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen-addr",
				Usage:   "Address the HTTP API listens on",
				Value:   ":9091",
				Sources: cli.EnvVars("LISTEN_ADDR"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection URL; without it storage-backed actions are skipped",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "notification-bus",
				Usage:   "Pub/sub for system notifications (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("NOTIFICATION_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "kafka:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for push notifications; without it push is logged",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "rules-file",
				Usage:   "YAML file with rules added on top of the defaults",
				Sources: cli.EnvVars("RULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "tick-schedule",
				Usage:   "Cron expression for time rule evaluation",
				Value:   scheduler.DefaultTick,
				Sources: cli.EnvVars("TICK_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("saviser-automation")

			logger.InfoContext(ctx, "Initializing SAVISER automation")

			tick, err := scheduler.ParseSchedule(command.String("tick-schedule"))
			if err != nil {
				return err
			}

			tracer, shutdownTracer, err := newTracer(ctx, command.Bool("tracing"))
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"), tickWindow(tick, time.Now()))
			if err != nil {
				return err
			}

			if store != nil {
				defer func() {
					if err := store.Close(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
					}
				}()
			} else {
				logger.WarnContext(ctx, "No database configured, storage-backed actions will fail")
			}

			publisher, subscriber, err := cmd.NewNotificationPubSub(command.String("notification-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := publisher.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close notification publisher", "error", err)
				}
			}()

			defer func() {
				if err := subscriber.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close notification subscriber", "error", err)
				}
			}()

			inbox := notify.NewInbox(notify.DefaultInboxSize, logger)
			if err := inbox.Consume(ctx, subscriber); err != nil {
				return err
			}

			notifier, err := cmd.NewNotifier(publisher, command.String("redis-url"), logger)
			if err != nil {
				return err
			}

			deps := protocol.Dependencies{
				Logger:        logger,
				Notifications: notifier,
			}

			if store != nil {
				deps.Directory = store
				deps.Assignments = store
				deps.Status = store
				deps.Rebalancer = store
				deps.Snapshots = store
			}

			eng, err := engine.New(deps, engine.WithTickSchedule(tick), engine.WithTracer(tracer))
			if err != nil {
				return err
			}

			loaded, err := cmd.RegisterRuleFile(eng, command.String("rules-file"))
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Rules registered", "from_file", loaded, "total", len(eng.Rules()))

			var health web.HealthChecker
			if store != nil {
				health = store
			}

			handlers := web.NewAPIHandlers(eng, health, validator.New(validator.WithRequiredStructEnabled())).
				WithNotificationFeed(inbox)
			app := web.NewApp(handlers)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			if err := eng.Start(runCtx); err != nil {
				return err
			}
			defer eng.Stop()

			handleSignals(runCtx, logger, app, cancel)

			return app.Listen(command.String("listen-addr"), fiber.ListenConfig{DisableStartupMessage: true})
		},
	}
}

// handleSignals shuts the HTTP server down on SIGINT or SIGTERM, which makes Listen return.
func handleSignals(ctx context.Context, logger *slog.Logger, app *fiber.App, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)

		select {
		case sig := <-signals:
			logger.Info("Received signal", "signal", sig)
		case <-ctx.Done():
		}

		logger.Info("Shutting down gracefully...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown HTTP server", "error", err)
		}
	}()
}

func newTracer(ctx context.Context, enabled bool) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		return otelhelper.Noop(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, "saviser-automation")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, shutdown, nil
}

// tickWindow is the period between two ticks around now. Snapshot queries use it so each
// time-based record is seen by exactly one tick.
func tickWindow(schedule cron.Schedule, now time.Time) time.Duration {
	next := schedule.Next(now)

	return schedule.Next(next).Sub(next)
}
