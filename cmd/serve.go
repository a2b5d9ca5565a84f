package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	restctx "github.com/dtroode/passkeeper-server/internal/api/rest/context"
	"github.com/dtroode/passkeeper-server/internal/api/rest/router"
	restserver "github.com/dtroode/passkeeper-server/internal/api/rest/server"
	"github.com/dtroode/passkeeper-server/internal/config"
	"github.com/dtroode/passkeeper-server/internal/hasher"
	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/metrics"
	"github.com/dtroode/passkeeper-server/internal/model"
	"github.com/dtroode/passkeeper-server/internal/notifier"
	"github.com/dtroode/passkeeper-server/internal/ratelimit"
	"github.com/dtroode/passkeeper-server/internal/repository/postgres"
	"github.com/dtroode/passkeeper-server/internal/server"
	"github.com/dtroode/passkeeper-server/internal/service"
	storage "github.com/dtroode/passkeeper-server/internal/storage/minio"
	"github.com/dtroode/passkeeper-server/internal/token"
)

const rateLimitKeyPrefix = "passkeeper:rl:"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
			defer stop()

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			return serve(ctx, cfg, logger.New(cfg.LogLevel))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		return err
	}
	defer db.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.New()
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	userRepo := postgres.NewUserRepository(db)
	secretRepo := postgres.NewSecretRepository(db)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	tokenService := service.NewTokenService(tokenManager, logger)

	accountService := service.NewAccount(
		userRepo,
		hasher.NewBcrypt(cfg.Account.PasswordCost),
		newNotifier(cfg, logger),
		token.NewOpaque(cfg.Account.TokenBytes),
		tokenService,
		m,
		logger,
		cfg.Account.RegistrationTimeout,
	)

	payloads, err := newPayloadStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage client", "error", err)
		return err
	}

	secretService := service.NewSecret(secretRepo, userRepo, payloads, m, logger, service.SecretConfig{
		RequireVerifiedEmail: cfg.Secrets.RequireVerifiedEmail,
		MaxAppendAttempts:    cfg.Secrets.MaxAppendAttempts,
		InlineLimit:          cfg.Secrets.InlineLimit,
	})

	limiter, closeLimiter, err := newLimiter(ctx, cfg.RateLimit)
	if err != nil {
		logger.Error("failed to initialize rate limiter", "error", err)
		return err
	}
	defer closeLimiter()

	r := router.New(accountService, secretService, tokenService, restctx.NewManager(), db, limiter, m, logger, cfg.HTTP.TrustedProxy)

	servers := []model.Server{restserver.NewHTTPServer(r.Register(), cfg.HTTP.Address)}
	layers := []model.SecurityLayer{server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)}
	if m != nil {
		servers = append(servers, restserver.NewHTTPServer(m.Handler(), cfg.Metrics.Address))
		layers = append(layers, server.NewPlainListener())
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range servers {
		s := s
		sl := layers[i]
		g.Go(func() error {
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				return fmt.Errorf("server %s: %w", s.Address(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Stop(shutdownCtx); err != nil {
				logger.Error("error during server shutdown", "error", err, "address", s.Address())
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	logAppVersion()

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func newNotifier(cfg *config.Config, logger *logger.Logger) *notifier.Email {
	var sender notifier.Sender = notifier.NewLogSender(logger)
	if cfg.Mail.SMTPHost != "" {
		sender = notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			TLSMode:  cfg.Mail.TLSMode,
		}, logger)
	}

	return notifier.NewEmail(sender, cfg.Mail.LinkBaseURL, cfg.Account.EmailChangeRecipient == config.RecipientNew)
}

// newPayloadStore returns a nil interface when object storage is off so the
// secret service keeps every payload inline.
func newPayloadStore(ctx context.Context, cfg config.Storage) (model.PayloadStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client, err := storage.NewClient(ctx, minioClient, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newLimiter(ctx context.Context, cfg config.RateLimit) (ratelimit.Limiter, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, noop, nil
	}

	if cfg.Driver != config.DriverRedis {
		return ratelimit.NewMemoryLimiter(cfg.MaxRequests, cfg.Window), noop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, noop, fmt.Errorf("failed to ping redis: %w", err)
	}

	return ratelimit.NewRedisLimiter(client, rateLimitKeyPrefix, cfg.MaxRequests, cfg.Window), func() { client.Close() }, nil
}
