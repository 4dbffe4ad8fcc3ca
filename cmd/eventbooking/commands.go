package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"eventbooking/config"
	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/adapters/calendar"
	"eventbooking/internal/adapters/email"
	"eventbooking/internal/database"
	deliveryhttp "eventbooking/internal/delivery/http"
	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/repository/postgres"
	"eventbooking/internal/services"
)

const (
	shutdownTimeout = 15 * time.Second
	connMaxLifetime = 30 * time.Minute
	bcryptCost      = 12
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "Listen port. Overrides PORT."},
			&cli.BoolFlag{Name: "migrate", Usage: "Apply pending migrations before serving."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.Port = c.String("port")
			}
			logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, c.Bool("migrate"))
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

			db, err := database.Open(c.Context, cfg.DBUrl, dbOptions(cfg))
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(c.Context, db, logger)
		},
	}
}

func dbOptions(cfg *config.Config) database.Options {
	return database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, runMigrations bool) error {
	db, err := database.Open(ctx, cfg.DBUrl, dbOptions(cfg))
	if err != nil {
		return err
	}
	defer db.Close()
	if runMigrations {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	emailService := services.NewEmailService(mailer, renderer, logger)
	notifier := services.NewAsyncNotifier(services.NewEmailNotifier(emailService), logger, cfg.NotifyTimeout)

	jwt := auth.NewJWTManager(cfg.JWTSecret)
	userService := services.NewUserService(userRepo, auth.NewBcryptHasher(bcryptCost), jwt, cfg.JWTExpiry, emailService, logger)
	eventService := services.NewEventService(eventRepo, attendanceRepo, logger, cfg.ContextTimeout)
	rsvpService := services.NewRSVPService(attendanceRepo, eventRepo, notifier, logger, cfg.ContextTimeout)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:   controllers.NewAuthController(logger, userService),
		Events: controllers.NewEventController(logger, eventService, calendar.NewEncoder()),
		RSVPs:  controllers.NewRSVPController(logger, rsvpService),
	}, jwt, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, cfg.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	notifier.Wait()
	return nil
}
