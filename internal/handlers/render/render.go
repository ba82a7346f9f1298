// Package render writes JSON responses and the uniform error envelope {"error", "message", "fields"}
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType      = "validation_failed"
	DecodingErrorType        = "decoding_failed"
	UnauthenticatedErrorType = "unauthenticated"
	RateLimitedErrorType     = "rate_limited"
)

// MaxBodySize limits request bodies accepted by BindAndValidate
const MaxBodySize = 1 << 20

var validate = newValidator()

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Messages of failed validation tags. Tags not listed here get "Invalid value"
var tagMessages = map[string]func(param string) string{
	"required": func(string) string { return "This field is required" },
	"notblank": func(string) string { return "This field is required" },
	"min":      func(p string) string { return fmt.Sprintf("Value is too short (minimum %s)", p) },
	"max":      func(p string) string { return fmt.Sprintf("Value is too long (maximum %s)", p) },
	"gt":       func(p string) string { return fmt.Sprintf("Value must be greater than %s", p) },
	"gte":      func(p string) string { return fmt.Sprintf("Value must not be less than %s", p) },
	"oneof":    func(p string) string { return fmt.Sprintf("Value must be one of: %s", p) },
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Error renders error with its type as machine readable code
func Error(w http.ResponseWriter, errType string, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: errType, Message: message}, code)
}

// DecodeError renders failure to read request body
func DecodeError(w http.ResponseWriter, err error) {
	var (
		typeErr *json.UnmarshalTypeError
		sizeErr *http.MaxBytesError
		message string
	)

	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &sizeErr):
		message = fmt.Sprintf("Request body is too large (maximum %d bytes)", sizeErr.Limit)
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Error(w, DecodingErrorType, message, http.StatusBadRequest)
}

// ValidationErrors renders failed fields keyed by their json names
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		message := "Invalid value"
		if msg, ok := tagMessages[fe.Tag()]; ok {
			message = msg(fe.Param())
		}
		fields[fe.Field()] = message
	}

	JSONWithStatus(w, ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  fields,
	}, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into T and validates it by struct tags.
// On failure the error response is already written and the caller only has to return
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			Error(w, ValidationErrorType, err.Error(), http.StatusBadRequest)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}
