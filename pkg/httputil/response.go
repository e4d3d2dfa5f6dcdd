// Package httputil holds the JSON request/response helpers shared by the
// HTTP handlers of every domain package.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// GenericErrorMessage is shown for any failure the caller cannot act on.
const GenericErrorMessage = "Something went wrong. Please try again."

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type actorKey struct{}

// WithActor stores the authenticated actor on the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor, if the request carried one.
func ActorFrom(ctx context.Context) (types.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(types.Actor)
	return actor, ok
}

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Type    types.ErrorType        `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error type onto its HTTP status
func StatusFor(t types.ErrorType) int {
	switch t {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeServiceUnavailable, types.ErrorTypePastDateTime:
		return http.StatusUnprocessableEntity
	case types.ErrorTypeSlotConflict, types.ErrorTypeConflict:
		return http.StatusConflict
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeAccessDenied:
		return http.StatusForbidden
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err. Typed errors keep their message; anything else is
// logged and rendered as a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var le *types.LabError
	if !errors.As(err, &le) || le.Type == types.ErrorTypeInternal || le.Type == types.ErrorTypeExternalSync {
		log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
			Type:    types.ErrorTypeInternal,
			Code:    types.ErrCodeInternalError,
			Message: GenericErrorMessage,
		}})
		return
	}

	WriteJSON(w, StatusFor(le.Type), ErrorBody{Error: ErrorDetail{
		Type:    le.Type,
		Code:    le.Code,
		Message: le.Message,
		Details: le.Details,
	}})
}

// DecodeJSON decodes the request body into dst and runs struct validation
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "request body is not valid JSON", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return Validate(dst)
}

// Validate runs struct validation tags on v
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil)
	}

	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = describe(fe)
	}
	return types.NewValidationError(types.ErrCodeInvalidInput, "request validation failed", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match layout %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// jsonName converts a Go field name such as ServiceIDs to service_ids.
func jsonName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || (nextLower && runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// QueryInt parses an integer query parameter, falling back to def
func QueryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

// RequireActor returns the request's actor or an authentication error
func RequireActor(r *http.Request) (types.Actor, error) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		return types.Actor{}, types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required")
	}
	return actor, nil
}
