package serverutils

import (
	"errors"

	"insightai-be/pkg/llm"
	"insightai-be/pkg/warehouse"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders any error returned by a downstream handler
// as the standard JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		body := ErrorResponse(code, err.Error())

		var verr *ValidationError
		if errors.As(err, &verr) {
			body.Message = "Invalid request"
			body.Errors = verr.Fields
		}

		return ctx.Status(code).JSON(body)
	}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		verr     *ValidationError
		fiberErr *fiber.Error
		execErr  *warehouse.ExecutionError
	)

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &execErr):
		return fiber.StatusBadRequest
	case errors.Is(err, warehouse.ErrSchemaUnavailable), errors.Is(err, llm.ErrUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
