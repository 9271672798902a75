package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance reporting fields by their query/json name
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json", "form"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &Validator{validate: v}
}

// Validate validates the request body against the provided struct
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &FieldsError{Message: "Validation failed", Fields: fields}
}

// FieldsError is a 422 response listing the offending fields
type FieldsError struct {
	Message string
	Fields  map[string]string
}

func (e *FieldsError) Error() string {
	return e.Message
}

// BindQuery parses and validates query parameters into T
func BindQuery[T any](c *fiber.Ctx, v *Validator) (T, error) {
	var out T
	if err := c.QueryParser(&out); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters: "+err.Error())
	}
	if err := v.Validate(&out); err != nil {
		return out, err
	}
	return out, nil
}

// BindBody parses and validates the request body into T
func BindBody[T any](c *fiber.Ctx, v *Validator) (T, error) {
	var out T
	if err := c.BodyParser(&out); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if err := v.Validate(&out); err != nil {
		return out, err
	}
	return out, nil
}
