package http

import (
	"fmt"
	"net/http"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeValidation  = "ERR_VALIDATION"
	CodeMalformed   = "ERR_MALFORMED"
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeNoData      = "ERR_NO_DATA"
	CodeUpstream    = "ERR_UPSTREAM"
	CodeRateLimited = "ERR_RATE_LIMITED"
	CodeInternal    = "ERR_INTERNAL"
)

var codeStatus = map[string]int{
	CodeValidation:  http.StatusBadRequest,
	CodeMalformed:   http.StatusBadRequest,
	CodeBadRequest:  http.StatusBadRequest,
	CodeNoData:      http.StatusNotFound,
	CodeUpstream:    http.StatusBadGateway,
	CodeRateLimited: http.StatusTooManyRequests,
	CodeInternal:    http.StatusInternalServerError,
}

// AppError is an error that knows how it should be rendered to a client.
type AppError struct {
	Code    string
	Message string
	Field   string
	Params  map[string]interface{}
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds an error for code. The status comes from the code
// table; unknown codes render as 500.
func NewAppError(code, message string) *AppError {
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, Status: status}
}

func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{}, 1)
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NoDataError reports a ticker the provider has no history for.
func NoDataError(ticker string) *AppError {
	return NewAppError(CodeNoData, "No data available").WithParam("ticker", ticker)
}

// UpstreamError reports a failing series provider.
func UpstreamError(err error) *AppError {
	return NewAppError(CodeUpstream, "Upstream data provider failed").WithError(err)
}

func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message)
}

// RateLimitedError carries the wait hint in params.retry_after_seconds.
func RateLimitedError(retryAfterSeconds int) *AppError {
	return NewAppError(CodeRateLimited, "Too many requests").WithParam("retry_after_seconds", retryAfterSeconds)
}

func InternalError(err error) *AppError {
	return NewAppError(CodeInternal, "Internal server error").WithError(err)
}
