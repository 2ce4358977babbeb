package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"insightai-be/pkg/llm"
	"insightai-be/pkg/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askRequest struct {
	Question string `validate:"required"`
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())

	app.Get("/validation", func(c *fiber.Ctx) error { return ValidateRequest(askRequest{}) })
	app.Get("/schema", func(c *fiber.Ctx) error {
		return fmt.Errorf("%w: connection refused", warehouse.ErrSchemaUnavailable)
	})
	app.Get("/llm", func(c *fiber.Ctx) error { return fmt.Errorf("sql generation: %w", llm.ErrUnavailable) })
	app.Get("/exec", func(c *fiber.Ctx) error { return &warehouse.ExecutionError{Message: "syntax error"} })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/other", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path string
		want int
	}{
		{"/validation", 400},
		{"/schema", 502},
		{"/llm", 502},
		{"/exec", 400},
		{"/fiber", 404},
		{"/other", 500},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)

			var body ErrorResponseBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.want, body.Code)
		})
	}
}

func TestValidateRequestCollectsFields(t *testing.T) {
	err := ValidateRequest(askRequest{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["Question"])

	assert.NoError(t, ValidateRequest(askRequest{Question: "revenue by month"}))
}
