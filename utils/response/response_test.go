package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/utils/apperror"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"forbidden", apperror.New(apperror.KindForbidden, "FORBIDDEN", "Students only"), fiber.StatusForbidden, "FORBIDDEN"},
		{"not found", fmt.Errorf("course 3: %w", apperror.New(apperror.KindNotFound, "COURSE_NOT_FOUND", "Course not found")), fiber.StatusNotFound, "COURSE_NOT_FOUND"},
		{"validation", apperror.New(apperror.KindValidation, "INVALID_RATING", "Rating must be between 1 and 5"), fiber.StatusUnprocessableEntity, "INVALID_RATING"},
		{"gateway", apperror.New(apperror.KindGateway, "PAYMENT_ERROR", "Payment provider unavailable"), fiber.StatusBadGateway, "PAYMENT_ERROR"},
		{"internal", errors.New("connection reset"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return FromError(c, logger.NewNop(), tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var out Response
			require.NoError(t, json.Unmarshal(body, &out))
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.code, out.Error.Code)
		})
	}
}

func TestInternalErrorMessageIsHidden(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, nil, errors.New("pq: password authentication failed"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "password authentication")
}

type fieldErr map[string]string

func (f fieldErr) Error() string { return "invalid" }

func (f fieldErr) Fields() map[string]string { return f }

func TestValidationErrorCarriesFields(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ValidationError(c, fmt.Errorf("bind: %w", fieldErr{"email": "Invalid email format"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out Response
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "Validation failed", out.Error.Message)
	assert.Equal(t, "Invalid email format", out.Error.Fields["email"])
}

func TestCalculatePagination(t *testing.T) {
	offset, meta := CalculatePagination(3, 10, 25)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 3, meta.TotalPages)

	offset, meta = CalculatePagination(0, 500, 5)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 100, meta.PerPage)
	assert.Equal(t, 1, meta.CurrentPage)

	_, meta = CalculatePagination(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)
}
