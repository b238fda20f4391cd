package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/prreview/internal/capture"
	"github.com/prreview/internal/config"
	"github.com/prreview/internal/review"
	"github.com/prreview/internal/webhookutils"
)

// PullRequestReviewer runs one review for a pull request.
type PullRequestReviewer interface {
	PerformReview(ctx context.Context, repo string, prNumber int) (*review.Result, error)
}

// Server represents the webhook server
type Server struct {
	echo     *echo.Echo
	address  string
	verifier *webhookutils.Verifier
	reviews  PullRequestReviewer
	capture  *capture.Recorder
}

// NewServer creates a new webhook server
func NewServer(cfg config.ServerConfig, verifier *webhookutils.Verifier, reviews PullRequestReviewer, recorder *capture.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	server := &Server{
		echo:     e,
		address:  cfg.Address(),
		verifier: verifier,
		reviews:  reviews,
		capture:  recorder,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":       "healthy",
			"webhook_mode": s.verifier.Mode().String(),
		})
	})

	s.echo.POST("/webhook", s.handleWebhook)
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", s.address).
			Str("webhook_mode", s.verifier.Mode().String()).
			Msg("Webhook server listening")
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("Shutting down webhook server")
	// reviews run inside the request and can take minutes
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// requestLogger logs one zerolog line per request.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
