// Package server exposes the HTTP triggers for the two daily runs.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const shutdownTimeout = 10 * time.Second

type JobRunner interface {
	Run(ctx context.Context, jobType model.JobType) (model.JobResult, error)
}

type Server struct {
	echo *echo.Echo
}

// New registers the routes. An empty secret leaves the triggers open.
func New(runner JobRunner, secret string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	cron := e.Group("/api/cron", BearerAuth(secret))
	cron.GET("/morning", handleRun(runner, model.JobMorning))
	cron.GET("/evening", handleRun(runner, model.JobEvening))

	return &Server{echo: e}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ERROR] failed to shut down http server: %v", err)
		}
		return ctx.Err()
	}
}

func handleRun(runner JobRunner, jobType model.JobType) echo.HandlerFunc {
	return func(c echo.Context) error {
		// The run outlives a client that hangs up.
		ctx := context.WithoutCancel(c.Request().Context())

		res, err := runner.Run(ctx, jobType)
		if err != nil {
			if errors.Is(err, job.ErrAlreadyRunning) {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		status := http.StatusOK
		if !res.Success {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, res)
	}
}

// BearerAuth checks "Authorization: Bearer <secret>" when secret is set.
func BearerAuth(secret string) echo.MiddlewareFunc {
	want := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(want) == 0 {
				return next(c)
			}

			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid bearer token")
			}
			return next(c)
		}
	}
}
