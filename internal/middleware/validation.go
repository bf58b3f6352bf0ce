package middleware

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
)

// Validator checks request structs and query parameters and answers
// failures with RFC 7807 problems.
type Validator struct {
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewValidator creates a validator with the custom tags registered
func NewValidator(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("filename", isValidFilename)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:     v,
		logger:       infrastructure.WithComponent(logger, "validation"),
		errorHandler: errorHandler,
	}
}

// Struct validates s and returns a 400 APIError listing every failed field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.InvalidRequestWithError(err)
	}
	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe.Field(), fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

// Var validates a single value against tag
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return apperrors.ErrValidation(field, formatValidationError(field, fieldErrs[0]))
		}
		return apperrors.ErrValidation(field, err.Error())
	}
	return nil
}

// ContentType rejects bodies whose media type is not one of allowed
func (v *Validator) ContentType(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				v.errorHandler.HandleError(w, r, apperrors.New(http.StatusBadRequest,
					"MISSING_PARAMETER", "Content-Type header is required"))
				return
			}
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || !slices.Contains(allowed, mediaType) {
				v.errorHandler.HandleError(w, r, apperrors.NewWithDetails(
					http.StatusUnsupportedMediaType,
					"UNSUPPORTED_MEDIA_TYPE",
					"Unsupported content type",
					map[string]any{
						"content_type": contentType,
						"allowed":      allowed,
					}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize caps request bodies; reads past limit fail with
// *http.MaxBytesError, which the error handler maps to 413.
func MaxBodySize(limit int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// QueryInt reads an integer query parameter in [min, max]. An absent
// parameter yields def.
func (v *Validator) QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.ErrValidation(param, fmt.Sprintf("%s must be a valid integer", param))
	}
	if n < min || n > max {
		return 0, apperrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max))
	}
	return n, nil
}

// QueryEnum reads a query parameter restricted to allowed. An absent
// parameter yields def.
func (v *Validator) QueryEnum(r *http.Request, param string, allowed []string, def string) (string, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def, nil
	}
	if slices.Contains(allowed, value) {
		return value, nil
	}
	return "", apperrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", ")))
}

func formatValidationError(field string, err validator.FieldError) string {
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "filename":
		return fmt.Sprintf("%s must be a plain file name", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isValidFilename rejects names that could leave the upload directory
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." || len(name) > 255 {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
