package perrors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
)

type ErrCode struct {
	Code   string `json:"code"`
	Status int    `json:"status"`
}

var (
	ErrCodeInvalidRequest      ErrCode = ErrCode{"invalid_request", http.StatusBadRequest}
	ErrCodeInternalServer              = ErrCode{"internal_server_error", http.StatusInternalServerError}
	ErrCodeNotFound                    = ErrCode{"not_found", http.StatusNotFound}
	ErrCodeConflict                    = ErrCode{"conflict", http.StatusConflict}
	ErrCodeUnauthorized                = ErrCode{"unauthorized", http.StatusUnauthorized}
	ErrCodeForbidden                   = ErrCode{"forbidden", http.StatusForbidden}
	ErrCodeBadRequest                  = ErrCode{"bad_request", http.StatusBadRequest}
	ErrCodeMethodNotAllowed            = ErrCode{"method_not_allowed", http.StatusMethodNotAllowed}
	ErrCodeInternalServerError         = ErrCode{"internal_server_error", http.StatusInternalServerError}

	ErrCodeUnauthenticated    = ErrCode{"unauthenticated", http.StatusUnauthorized}
	ErrCodeInvalidCredentials = ErrCode{"invalid_credentials", http.StatusUnauthorized}
	ErrCodeSessionNotFound    = ErrCode{"session_not_found", http.StatusUnauthorized}
	ErrCodeCapacityExceeded   = ErrCode{"capacity_exceeded", http.StatusConflict}
)

type Err struct {
	Message    string                   `json:"-"`
	Err        string                   `json:"error"`
	Code       ErrCode                  `json:"code"`
	Stacktrace []string                 `json:"-"`
	Args       []map[string]interface{} `json:"args,omitempty"`

	cause string
}

func (e Err) Error() string {
	return e.Err
}

func (e Err) HttpStatus() int {
	return e.Code.Status
}

func (e Err) Print(ctx context.Context) {
	args := []any{slog.Any("error", e.cause), slog.String("code", e.Code.Code)}
	if len(e.Args) > 0 {
		for k, v := range e.Args[0] {
			args = append(args, slog.Any(k, v))
		}
	}
	args = append(args, slog.Any("stacktrace", e.Stacktrace))
	slog.ErrorContext(ctx, e.Message, args...)
}

// New captures the caller's stack. Server-side errors expose only msg to the
// client; the underlying error is kept for logging.
func New(code ErrCode, msg string, err error, args ...map[string]interface{}) error {
	pc := make([]uintptr, 20)
	count := runtime.Callers(1, pc)
	frames := runtime.CallersFrames(pc[:count])

	var stacktrace []string
	for frame, hasMore := frames.Next(); hasMore; frame, hasMore = frames.Next() {
		stacktrace = append(stacktrace, fmt.Sprintf("%s:%d", frame.File, frame.Line))
	}

	cause := "error missing"
	if err != nil {
		cause = err.Error()
	}

	public := cause
	if code.Status >= http.StatusInternalServerError {
		public = msg
	}

	return Err{
		Code:       code,
		Message:    msg,
		Err:        public,
		Stacktrace: stacktrace,
		Args:       args,
		cause:      cause,
	}
}

func NewErrInvalidRequest(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInvalidRequest, msg, err, args...)
}

func NewErrInternalServerError(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInternalServer, msg, err, args...)
}

func NewErrNotFound(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeNotFound, msg, err, args...)
}

func NewErrUnauthenticated(msg string, err error) error {
	return New(ErrCodeUnauthenticated, msg, err)
}

func NewErrForbidden(msg string, err error) error {
	return New(ErrCodeForbidden, msg, err)
}
