package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/session"
	"github.com/bilgisen/portal/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fiber.ErrBadRequest, http.StatusBadRequest},
		{&FieldsError{Message: "x"}, http.StatusUnprocessableEntity},
		{&repository.ValidationError{Status: 422, Message: "title required"}, http.StatusUnprocessableEntity},
		{&session.ValidationError{Fields: map[string]string{"title": "notblank"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: pages", listing.ErrUnknownCollection), http.StatusNotFound},
		{repository.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: connection refused", repository.ErrTransport), http.StatusBadGateway},
		{session.ErrSubmitInFlight, http.StatusConflict},
		{session.ErrUnpublish, http.StatusConflict},
		{session.ErrNoChanges, http.StatusConflict},
		{storage.ErrNotImage, http.StatusUnsupportedMediaType},
		{storage.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHandlerBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/api/v1/news/:id", func(c *fiber.Ctx) error {
		return repository.ErrNotFound
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fmt.Errorf("db password leaked")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/news/7", nil), -1)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "/api/v1/news", body["back"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil), -1)
	require.NoError(t, err)
	body = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestAdminOnly(t *testing.T) {
	newApp := func(key string) *fiber.App {
		app := fiber.New()
		app.Get("/", AdminOnly(key), func(c *fiber.Ctx) error {
			return c.SendString(c.Locals("apiKey").(string))
		})
		return app
	}

	app := newApp("s3cret")
	for _, tc := range []struct {
		header, value string
		want          int
	}{
		{"", "", http.StatusUnauthorized},
		{"X-API-Key", "wrong", http.StatusUnauthorized},
		{"X-API-Key", "s3cret", http.StatusOK},
		{fiber.HeaderAuthorization, "Bearer s3cret", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, tc.header)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "anything")
	resp, err := newApp("").Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type pageQuery struct {
	Page int    `query:"page" validate:"omitempty,min=1"`
	Sort string `query:"sort" validate:"omitempty,oneof=newest oldest"`
}

func TestBindQueryReportsFieldNames(t *testing.T) {
	v := NewValidator()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := BindQuery[pageQuery](c, v)
		if err != nil {
			return err
		}
		return c.JSON(q)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=-1&sort=random", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"page": "min", "sort": "oneof"}, body.Fields)
}
