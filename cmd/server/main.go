// Command server runs the HayatOS API: a login-gated personal
// life-organization service with per-user encrypted databases.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hayatos/hayatos/internal/api"
	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/calendar"
	"github.com/hayatos/hayatos/internal/config"
	"github.com/hayatos/hayatos/internal/crypto"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/email"
	"github.com/hayatos/hayatos/internal/finance"
	"github.com/hayatos/hayatos/internal/habits"
	"github.com/hayatos/hayatos/internal/health"
	"github.com/hayatos/hayatos/internal/islamic"
	"github.com/hayatos/hayatos/internal/notes"
	"github.com/hayatos/hayatos/internal/obs"
	"github.com/hayatos/hayatos/internal/ratelimit"
	"github.com/hayatos/hayatos/internal/reminders"
	"github.com/hayatos/hayatos/internal/settings"
)

func main() {
	obs.Init()
	log := obs.Pkg("main")

	noEmail, addr := config.ParseFlags()
	cfg := config.MustLoadConfig(noEmail, addr)
	cfg.PrintStartupSummary()

	db.DataDirectory = cfg.DataDir
	sessionsDB, err := db.OpenSessionsDB()
	if err != nil {
		log.Error("open_sessions_db_failed", "error", err)
		os.Exit(1)
	}

	masterKey, err := hex.DecodeString(cfg.MasterKey)
	if err != nil {
		log.Error("invalid_master_key", "error", err)
		os.Exit(1)
	}
	keyManager := crypto.NewKeyManager(masterKey, sessionsDB)

	var emailSvc email.EmailService
	if cfg.NoEmail {
		emailSvc = email.NewMockEmailService()
	} else {
		emailSvc = email.NewResendEmailService(cfg.ResendAPIKey, cfg.ResendFromEmail)
	}

	sessionSvc := auth.NewSessionService(sessionsDB, cfg.SessionDuration)
	userSvc := auth.NewUserService(sessionsDB, keyManager, emailSvc, cfg.BaseURL)
	mw := auth.NewMiddleware(sessionSvc, keyManager)

	server := &api.Server{
		Users:     userSvc,
		Sessions:  sessionSvc,
		Notes:     notes.NewService(),
		Reminders: reminders.NewService(),
		Habits:    habits.NewService(),
		Health:    health.NewService(),
		Calendar:  calendar.NewService(),
		Finance:   finance.NewService(),
		Islamic:   islamic.NewService(),
		Settings:  settings.NewService(),

		AudioBaseURL: cfg.AudioBaseURL,
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, mw)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	var handler http.Handler = mux
	handler = ratelimit.Middleware(limiter, mw.UserIDFromRequest)(handler)
	handler = obs.AccessLogMiddleware("http", handler)
	handler = obs.RequestContextMiddleware(handler)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Expired sessions are swept in the background.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := sessionSvc.Cleanup(sweepCtx); err != nil {
					log.Warn("session_cleanup_failed", "error", err)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting_down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve_failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown_incomplete", "error", err)
	}
	if err := db.CloseAll(); err != nil {
		log.Warn("close_databases_failed", "error", err)
	}
}
