package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// Response messages shared by handlers and middleware.
const (
	msgUnauthenticated    = "unauthenticated"
	msgInvalidCredentials = "invalid email or password"
	msgRateLimited        = "too many requests, try again later"
	msgValidation         = "validation failed"
	msgEmailTaken         = "email already in use"
	msgNotFound           = "not found"
	msgForbidden          = "forbidden"
	msgInternal           = "internal error"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

func abortValidation(c *gin.Context, details ...FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msgValidation, Details: details})
}

// writeBindError reports a request body that failed to decode or validate.
func writeBindError(c *gin.Context, err error) {
	abortValidation(c, bindDetails(err)...)
}

func bindDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: jsonFieldName(fe), Message: validationMessage(fe)})
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return []FieldError{{Field: "body", Message: "request body is empty"}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []FieldError{{Field: "body", Message: "malformed JSON"}}
	case errors.As(err, &typeErr):
		return []FieldError{{Field: typeErr.Field, Message: "must be " + typeErr.Type.String()}}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return []FieldError{{Field: field, Message: "unknown field"}}
	}
	return []FieldError{{Field: "body", Message: err.Error()}}
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	}
	return "is invalid"
}

// writeServiceError translates a service error into a response. Anything
// unrecognised is logged and reported as 500.
func (h *Handlers) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		abortError(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenRevoked),
		errors.Is(err, common.ErrorUnauthorized):
		abortError(c, http.StatusUnauthorized, msgUnauthenticated)
	case errors.Is(err, common.ErrRateLimited):
		abortError(c, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, common.ErrorValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
		abortValidation(c, FieldError{Field: "body", Message: msg})
	case errors.Is(err, common.ErrInvalidObjectKey):
		abortValidation(c, FieldError{Field: "url", Message: "invalid object key"})
	case errors.Is(err, common.ErrorAlreadyExists):
		abortError(c, http.StatusBadRequest, msgEmailTaken)
	case errors.Is(err, common.ErrorNotFound):
		abortError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, common.ErrorForbidden), errors.Is(err, common.ErrForeignObjectURL):
		abortError(c, http.StatusForbidden, msgForbidden)
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		abortError(c, http.StatusInternalServerError, msgInternal)
	}
}
