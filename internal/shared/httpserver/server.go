package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

type Server struct {
	app *fiber.App
}

var log = logger.GetLogger()

// HealthCheck is one dependency probed by GET /health. When Report is set
// its value is shown instead of "ok" and Check is not called.
type HealthCheck struct {
	Name   string
	Check  func(ctx context.Context) error
	Report func(ctx context.Context) (any, error)
}

func (hc HealthCheck) run(ctx context.Context) (any, error) {
	if hc.Report != nil {
		return hc.Report(ctx)
	}
	return "ok", hc.Check(ctx)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string           `json:"error"`
	Code      apperr.Code      `json:"code"`
	Retryable bool             `json:"retryable,omitempty"`
	Minimum   *decimal.Decimal `json:"minimum,omitempty"`
}

func NewServer(checks ...HealthCheck) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(requestLogger)

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		status := fiber.Map{"status": "ok"}
		code := http.StatusOK
		for _, hc := range checks {
			result, err := hc.run(ctx)
			if err != nil {
				log.Warn("Health check failed", zap.String("check", hc.Name), zap.Error(err))
				status[hc.Name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[hc.Name] = result
		}
		return c.Status(code).JSON(status)
	})

	return &Server{app: app}
}

// App exposes the fiber app so modules can mount their routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	log.Info("HTTP server started", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down HTTP server...")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	log.Info("HTTP request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("remote_addr", c.IP()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

// ErrorHandler renders rejections with their code and hides internal errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if r, ok := apperr.As(err); ok {
		return c.Status(apperr.HTTPStatus(r.Code)).JSON(ErrorResponse{
			Error:     r.Message,
			Code:      r.Code,
			Retryable: r.Retryable,
			Minimum:   r.Minimum,
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperr.CodeValidation
		switch {
		case fe.Code == http.StatusNotFound:
			code = apperr.CodeNotFound
		case fe.Code >= http.StatusInternalServerError:
			code = apperr.CodeInternal
		}
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message, Code: code})
	}

	log.Error("Unhandled request error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Error: "internal server error",
		Code:  apperr.CodeInternal,
	})
}

func statusOf(err error) int {
	if r, ok := apperr.As(err); ok {
		return apperr.HTTPStatus(r.Code)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return http.StatusInternalServerError
}
