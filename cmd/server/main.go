package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/folio/backend/internal/config"
	"github.com/folio/backend/internal/handler"
	"github.com/folio/backend/internal/logging"
	"github.com/folio/backend/internal/mailer"
	"github.com/folio/backend/internal/repository"
	"github.com/folio/backend/internal/scheduler"
	"github.com/folio/backend/internal/service"
	"github.com/folio/backend/pkg/auth"
)

// mailTimeout bounds a single background notification mail.
const mailTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal("server error", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.DBMigrate && repository.IsPostgresURL(cfg.DatabaseURL) {
		m, err := repository.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		err = repository.MigrateUp(m)
		_, _ = m.Close()
		if err != nil {
			return err
		}
	}

	store, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	mail := mailer.New(mailer.Config{
		Addr:     cfg.SMTP.Addr,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	notificationService := service.NewNotificationService(store.Notifications)
	observers := []service.MessageObserver{notificationService}
	var mailObserver *service.AsyncObserver
	if cfg.MailEnabled() {
		mailObserver = service.NewAsyncObserver(service.NewMailNotifier(mail, cfg.AdminEmail, cfg.SiteName), mailTimeout)
		observers = append(observers, mailObserver)
		slog.Info("mail notifications enabled", "smtp", cfg.SMTP.Addr)
	}
	messageService := service.NewMessageService(store.Messages, observers...)

	secret := auth.SessionSecretBytes(cfg.SessionSecret)
	authService := service.NewAuthService(service.AuthConfig{
		AdminEmail:   cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       secret,
		TTL:          cfg.SessionTTL,
	})
	if !cfg.AuthRequired {
		slog.Warn("AUTH_REQUIRED=false: admin routes are open")
	}

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	if cfg.DigestEnabled() {
		digest := service.NewDigestService(messageService, mail, cfg.AdminEmail, cfg.SiteName)
		err := sched.AddCronJob("unread-digest", cfg.DigestCron, func(ctx context.Context) error {
			_, err := digest.SendUnreadDigest(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}
	sched.Start()

	var limiter *handler.RateLimiter
	if cfg.ContactRateLimit > 0 {
		limiter = handler.NewRateLimiter(ctx, cfg.ContactRateLimit, 0)
	}

	router := handler.NewRouter(handler.RouterConfig{
		DB:             store.DB,
		FrontendURL:    cfg.FrontendURL,
		SessionSecret:  secret,
		AuthRequired:   cfg.AuthRequired,
		SecureCookie:   strings.HasPrefix(cfg.FrontendURL, "https://"),
		LongPollMax:    cfg.LongPollMax,
		ContactLimiter: limiter,
	}, handler.Services{
		Messages:      messageService,
		Notifications: notificationService,
		Auth:          authService,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// long-polls hold the response open for up to LongPollMax
		WriteTimeout: cfg.LongPollMax + 10*time.Second,
	}
	// pending long-polls answer with the current thread instead of holding
	// Shutdown until LongPollMax
	server.RegisterOnShutdown(messageService.ReleaseWaiters)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := sched.Stop(); err != nil {
			slog.Error("scheduler shutdown error", "error", err)
		}
		if mailObserver != nil {
			mailObserver.Wait()
		}
		return nil
	})

	err = g.Wait()
	slog.Info("server stopped")
	return err
}
