package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/handlers/video"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

const shutdownTimeout = 15 * time.Second

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *logger.Logger
}

func NewAPIServer(listenAddress string, log *logger.Logger) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "elearning-api",
			BodyLimit:    video.MaxUploadSize,
			ErrorHandler: errorHandler(log),
		}),
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *APIServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting API server", "address", s.listenAddress)
		errCh <- s.app.Listen(s.listenAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down API server")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	return <-errCh
}

// errorHandler renders errors that escape handlers, such as unknown routes or
// oversized bodies, in the same envelope as every other response
func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			switch fiberErr.Code {
			case fiber.StatusNotFound:
				return response.Error(c, fiberErr.Code, "Route not found", "NOT_FOUND")
			case fiber.StatusRequestEntityTooLarge:
				return response.Error(c, fiberErr.Code, "Request body too large", "PAYLOAD_TOO_LARGE")
			case fiber.StatusMethodNotAllowed:
				return response.Error(c, fiberErr.Code, fiberErr.Message, "METHOD_NOT_ALLOWED")
			}
			if fiberErr.Code < fiber.StatusInternalServerError {
				return response.Error(c, fiberErr.Code, fiberErr.Message, "BAD_REQUEST")
			}
		}
		return response.FromError(c, log, err)
	}
}
