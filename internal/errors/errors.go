package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies failures of the record store. The set is closed: callers
// switch on it instead of inspecting messages.
type Kind string

const (
	KindUnknown               Kind = ""
	KindNotFound              Kind = "NOT_FOUND"
	KindReferenceViolation    Kind = "REFERENCE_VIOLATION"
	KindConstraintViolation   Kind = "CONSTRAINT_VIOLATION"
	KindDuplicateKey          Kind = "DUPLICATE_KEY"
	KindEmptyUpdate           Kind = "EMPTY_UPDATE"
	KindEmptyInput            Kind = "EMPTY_INPUT"
	KindConnectionUnavailable Kind = "CONNECTION_UNAVAILABLE"
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
)

// Error codes used in API responses for conditions that are not store kinds.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeRouteNotFound      = "ROUTE_NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Error is a classified store error. Entity and Field identify what was
// violated when that is known ("task", "user"; "username", "assigned_to").
type Error struct {
	Kind    Kind
	Entity  string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel-style checks such as
// errors.Is(err, &Error{Kind: KindNotFound}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldOf returns the violated field of the first *Error in err's chain.
func FieldOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Field
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func NotFound(entity string, id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%s %d not found", entity, id),
	}
}

// NotFoundBy reports a lookup by a non-identifier field that matched nothing.
func NotFoundBy(entity, field, value string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Field:   field,
		Message: fmt.Sprintf("%s with %s %q not found", entity, field, value),
	}
}

func ReferenceViolation(field, message string) *Error {
	return &Error{Kind: KindReferenceViolation, Field: field, Message: message}
}

func ConstraintViolation(field, value string) *Error {
	return &Error{
		Kind:    KindConstraintViolation,
		Field:   field,
		Message: fmt.Sprintf("invalid %s value %q", field, value),
	}
}

func DuplicateKey(entity, field string) *Error {
	return &Error{
		Kind:    KindDuplicateKey,
		Entity:  entity,
		Field:   field,
		Message: fmt.Sprintf("%s already exists", field),
	}
}

func EmptyUpdate() *Error {
	return &Error{Kind: KindEmptyUpdate, Message: "no fields to update"}
}

func EmptyInput(message string) *Error {
	return &Error{Kind: KindEmptyInput, Message: message}
}

func ConnectionUnavailable(err error) *Error {
	return &Error{Kind: KindConnectionUnavailable, Message: "database connection unavailable", Err: err}
}

func InvalidArgument(field, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Field: field, Message: message}
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// StatusCode maps a kind to the HTTP status reported to clients.
func StatusCode(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindReferenceViolation, KindConstraintViolation, KindEmptyUpdate, KindEmptyInput, KindInvalidArgument:
		return http.StatusBadRequest
	case KindDuplicateKey:
		return http.StatusConflict
	case KindConnectionUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToAPIError converts any error into the response body and status. Errors
// without a kind are reported as opaque internal errors.
func ToAPIError(err error) (int, *APIError) {
	var e *Error
	if !stderrors.As(err, &e) || e.Kind == KindUnknown {
		return http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, "Internal server error")
	}

	apiErr := NewAPIError(string(e.Kind), e.Message)
	if e.Kind == KindConnectionUnavailable {
		apiErr.Message = "Unable to connect to the database"
	}
	if e.Field != "" {
		apiErr.Details = map[string]string{"field": e.Field}
	}
	return StatusCode(e.Kind), apiErr
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond sends the response for err and aborts the handler chain.
func Respond(c *gin.Context, err error) {
	status, apiErr := ToAPIError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apiErr)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// RouteNotFound sends a 404 response for unknown routes
func RouteNotFound(c *gin.Context) {
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeRouteNotFound,
		fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path)))
}

// TooManyRequests sends a 429 response telling the client when to retry
func TooManyRequests(c *gin.Context, message string, retryAfter int) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, NewAPIErrorWithDetails(ErrCodeRateLimited, message,
		gin.H{"retry_after": retryAfter}))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
