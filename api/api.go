package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/utils/response"
)

// APIServer wraps the Fiber app and its listen address
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer creates the Fiber app. The body limit leaves room for a
// full submission batch (5 files at 20 MB each) plus multipart overhead.
func NewAPIServer(listenAddress string) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:      "classbridge-api",
		BodyLimit:    128 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
	}
}

// GetEngine returns the underlying Fiber app
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run starts listening
func (s *APIServer) Run() error {
	log.Printf("Starting API server on %s", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// errorHandler converts errors that escape the handlers into the standard
// JSON envelope, keeping the taxonomy code aligned with the status
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}

	return response.Error(c, status, message, codeForStatus(status))
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		return response.CodeInvalidInput
	case fiber.StatusUnauthorized:
		return response.CodeUnauthorized
	case fiber.StatusForbidden:
		return response.CodeForbidden
	case fiber.StatusNotFound:
		return response.CodeNotFound
	case fiber.StatusConflict:
		return response.CodeConflict
	case fiber.StatusServiceUnavailable:
		return response.CodeUnavailable
	default:
		return response.CodeInternalError
	}
}
