// Package response renders the JSON envelope every dashboard endpoint returns:
//
//	{"errorDetails": {...}, "error": false, "message": "...", "data": ..., "status": 200}
package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
)

// encodeFailureBody is written when the envelope itself cannot be encoded.
const encodeFailureBody = `{"errorDetails":{"error":"Unable to encode response","code":{"code":"internal_server_error","status":500}},"error":true,"message":"Unable to encode response","data":null,"status":500}`

type Response[T any] struct {
	ctx          context.Context
	ErrorDetails perrors.Err `json:"errorDetails"`
	Error        bool        `json:"error"`
	Message      string      `json:"message"`
	Data         T           `json:"data"`
	Status       int         `json:"status"`
}

func NewResponse[T any](ctx context.Context, msg string, data T) *Response[T] {
	return &Response[T]{
		ctx:     ctx,
		Message: msg,
		Data:    data,
		Status:  http.StatusOK,
	}
}

// NewList is NewResponse for collections. A nil slice is sent as [] so
// clients never have to tell "no rows" apart from "no data".
func NewList[T any](ctx context.Context, msg string, items []T) *Response[[]T] {
	if items == nil {
		items = []T{}
	}
	return NewResponse(ctx, msg, items)
}

// WithError marks the response failed. Errors that are not a perrors.Err are
// reported as a 500 carrying the response message.
func (r *Response[T]) WithError(err error) *Response[T] {
	var perr perrors.Err
	if !errors.As(err, &perr) {
		perr = perrors.NewErrInternalServerError(r.Message, err).(perrors.Err)
	}

	r.ErrorDetails = perr
	r.Status = perr.HttpStatus()
	r.Error = true

	return r
}

// Write sends the envelope as JSON. Responses carry session and user data and
// are never cacheable.
func (r *Response[T]) Write(ctx *fasthttp.RequestCtx) {
	if r.Error {
		r.logError()
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-store")

	body, err := json.Marshal(r)
	if err != nil {
		slog.ErrorContext(r.ctx, "Unable to json encode response", slog.String("message", r.Message), slog.Any("error", err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		ctx.SetBodyString(encodeFailureBody)
		return
	}

	ctx.SetStatusCode(r.Status)
	ctx.SetBody(body)
}

// logError reports server faults with their stack. Client mistakes such as a
// missing session or a full assignee are routine and logged without one.
func (r *Response[T]) logError() {
	if r.Status >= http.StatusInternalServerError {
		r.ErrorDetails.Print(r.ctx)
		return
	}
	slog.InfoContext(r.ctx, "Request rejected",
		slog.Int("status", r.Status),
		slog.String("code", r.ErrorDetails.Code.Code),
		slog.String("error", r.ErrorDetails.Err))
}
