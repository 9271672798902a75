package middleware

import (
	"errors"
	"net/http"

	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/logger"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/session"
	"github.com/bilgisen/portal/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		fe     *fiber.Error
		fields *FieldsError
		rv     *repository.ValidationError
		sv     *session.ValidationError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &fields), errors.As(err, &rv), errors.As(err, &sv):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, listing.ErrUnknownCollection):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, repository.ErrTransport):
		return fiber.StatusBadGateway
	case errors.Is(err, session.ErrSubmitInFlight), errors.Is(err, session.ErrNotOpen), errors.Is(err, session.ErrUnpublish),
		errors.Is(err, session.ErrNoChanges):
		return fiber.StatusConflict
	case errors.Is(err, storage.ErrNotImage):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as a JSON body with success=false.
// Not-found responses carry a link back to the listing instead of a raw message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)

	body := fiber.Map{
		"success": false,
		"error":   message(code, err),
	}

	var fields *FieldsError
	var sv *session.ValidationError
	switch {
	case errors.As(err, &fields):
		body["fields"] = fields.Fields
	case errors.As(err, &sv):
		body["fields"] = sv.Fields
	}
	if code == fiber.StatusNotFound {
		body["back"] = backLink(c)
	}

	event := logger.Get().Warn()
	if code >= fiber.StatusInternalServerError {
		event = logger.Get().Error()
	}
	event.
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(body)
}

func message(code int, err error) string {
	switch code {
	case fiber.StatusInternalServerError:
		return http.StatusText(code)
	case fiber.StatusBadGateway:
		return "Content service is unavailable, please try again"
	case fiber.StatusNotFound:
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe.Message
		}
		return "Content not found"
	}
	return err.Error()
}

// backLink points a detail URL at its listing: /api/v1/news/12 -> /api/v1/news.
func backLink(c *fiber.Ctx) string {
	path := c.Path()
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "/"
}
