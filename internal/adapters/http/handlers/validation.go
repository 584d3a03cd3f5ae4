package handlers

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"edvisa-admin/internal/adapters/http/middleware"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses and validates the JSON body into out. When it returns
// false the error response has already been written.
func bind(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, response.BadRequest(c, "Invalid request body")
		}
		fields := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, response.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return false, response.ValidationFailed(c, fields...)
	}
	return true, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "lte":
		return "is out of range"
	default:
		return "is invalid"
	}
}

// idParam reads a UUID path parameter
func idParam(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// accessFrom pairs the caller with the route's permission decision
func accessFrom(c *fiber.Ctx) services.Access {
	principal, _ := middleware.PrincipalFrom(c)
	return services.Access{SubjectID: principal.SubjectID, Result: middleware.ResultFrom(c)}
}

// writeError maps service errors to responses
func writeError(c *fiber.Ctx, err error, fallback string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, response.FieldError{Field: verr.Field, Message: verr.Message})
	case errors.Is(err, services.ErrInvalidOrExpiredRefreshToken):
		return response.Unauthorized(c, "Invalid or expired refresh token")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to access this resource")
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrPermissionNotAssigned):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, "Email already registered")
	case errors.Is(err, services.ErrAdminPermissionsManaged):
		return response.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrUnknownPermission):
		return response.BadRequest(c, err.Error())
	default:
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, fallback)
	}
}
