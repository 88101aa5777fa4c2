// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/rohitdesai-dev/gatepass/internal/clock"
	"github.com/rohitdesai-dev/gatepass/internal/database"
	"github.com/rohitdesai-dev/gatepass/internal/handler"
	"github.com/rohitdesai-dev/gatepass/internal/repository"
	"github.com/rohitdesai-dev/gatepass/internal/service"
	"github.com/rohitdesai-dev/gatepass/migrations"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx := context.Background()

	// ── 1. Connect to PostgreSQL and apply migrations ─────────────────────
	pool, err := database.NewPool(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("database")
	}
	defer pool.Close()
	logrus.Info("connected to postgres")

	if err := migrations.Apply(ctx, pool); err != nil {
		logrus.WithError(err).Fatal("apply migrations")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	clk := clock.NewSystem()
	eventRepo := repository.NewEventRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	passRepo := repository.NewPassRepository(pool)

	eventSvc := service.NewEventService(eventRepo, clk)
	teamSvc := service.NewTeamService(eventRepo, teamRepo, clk)
	passSvc := service.NewPassService(eventRepo, teamRepo, passRepo, clk)
	checkinSvc := service.NewCheckinService(eventRepo, passRepo, clk)

	h := handler.NewHandler(eventSvc, teamSvc, passSvc, checkinSvc, clk)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for the web client
	r.Use(handler.Identity)        // trusted identity headers

	// Health
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/teams", h.CreateTeam)
	})
	r.Route("/teams", func(r chi.Router) {
		r.Post("/join", h.JoinTeam)
		r.Get("/{id}", h.GetTeam)
	})
	r.Route("/passes", func(r chi.Router) {
		r.Post("/", h.IssuePass)
		r.Get("/{id}", h.GetPass)
	})
	r.Route("/checkin", func(r chi.Router) {
		r.Get("/{code}", h.Lookup)
		r.Post("/{code}/accept", h.Accept)
		r.Get("/{code}/qr.png", h.SeatQR)
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		logrus.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("graceful shutdown failed")
	}
	logrus.Info("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
