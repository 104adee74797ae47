package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"xjsf/internal/models"
	"xjsf/internal/param"
)

// ErrDuplicateService is returned when registering a name twice.
var ErrDuplicateService = errors.New("service already registered")

// Error is a pipeline condition rendered as an ERROR envelope. Services may
// return one to choose the code; any other error becomes a FAULT.
type Error struct {
	Code       string
	Message    string
	Parameter  string
	Progress   *float64
	StatusCode int
	Err        error

	stack string
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

// Status is the HTTP status the envelope is sent with.
func (e *Error) Status() int {
	if e.StatusCode == 0 {
		return http.StatusOK
	}
	return e.StatusCode
}

// trace describes where the error came from: the recovered stack for
// panics, otherwise the chain of wrapped errors.
func (e *Error) trace() string {
	if e.stack != "" {
		return e.stack
	}
	var lines []string
	for err := e.Err; err != nil; err = errors.Unwrap(err) {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\ncaused by: ")
}

// envelope builds the ERROR body for e.
func (e *Error) envelope(exposeTrace bool) *models.ErrorMessage {
	msg := models.NewErrorMessage(e.Code, e.Error())
	msg.Parameter = e.Parameter
	msg.Progress = e.Progress
	if exposeTrace && e.Code == models.ErrorCodeFault {
		msg.Trace = e.trace()
	}
	return msg
}

// Error constructors for pipeline conditions

func NotReady(progress float64) *Error {
	return &Error{
		Code:     models.ErrorCodeNotReady,
		Message:  fmt.Sprintf("Service is not yet ready; initialisation progress %d%%", int(progress*100)),
		Progress: &progress,
	}
}

func QuotaExceeded() *Error {
	return &Error{
		Code:    models.ErrorCodeQuotaExceeded,
		Message: "You have exceeded your usage limits",
	}
}

func UnknownClient(err error) *Error {
	return &Error{
		Code:    models.ErrorCodeUnknownClient,
		Message: "Client could not be identified",
		Err:     err,
	}
}

func InvalidParameter(name string, err error) *Error {
	return &Error{
		Code:      models.ErrorCodeInvalidParameter,
		Message:   "Invalid parameter",
		Parameter: name,
		Err:       err,
	}
}

func UnsupportedFormat(service, format string) *Error {
	return &Error{
		Code:    models.ErrorCodeUnsupportedFormat,
		Message: fmt.Sprintf("Service %s does not support the %s response format", service, format),
	}
}

func UnknownService(name string) *Error {
	return &Error{
		Code:       models.ErrorCodeUnknownService,
		Message:    fmt.Sprintf("No service named %q", name),
		StatusCode: http.StatusNotFound,
	}
}

func Fault(err error) *Error {
	return &Error{
		Code:    models.ErrorCodeFault,
		Message: "Service failed",
		Err:     err,
	}
}

// classify maps any error onto a pipeline condition.
func classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	var invalid *param.InvalidValueError
	if errors.As(err, &invalid) {
		return InvalidParameter(invalid.Name, err)
	}
	fault := Fault(err)
	var pe *panicError
	if errors.As(err, &pe) {
		fault.stack = string(pe.stack)
	}
	return fault
}

// panicError carries a recovered panic and its stack.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
