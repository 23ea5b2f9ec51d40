package response

import (
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
)

type envelope struct {
	ErrorDetails struct {
		Error string `json:"error"`
		Code  struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"code"`
	} `json:"errorDetails"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Status  int    `json:"status"`
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, sonic.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return env
}

func TestListSendsEmptyArrayForNil(t *testing.T) {
	var ctx fasthttp.RequestCtx
	NewList[string](context.Background(), "Users retrieved successfully", nil).Write(&ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"data":[]`)
	assert.Equal(t, []any{}, decode(t, &ctx).Data)
}

func TestWriteIsNeverCacheable(t *testing.T) {
	var ctx fasthttp.RequestCtx
	NewResponse(context.Background(), "ok", map[string]int{"total": 3}).Write(&ctx)

	assert.Equal(t, "no-store", string(ctx.Response.Header.Peek(fasthttp.HeaderCacheControl)))
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
}

func TestWithErrorUsesErrorStatus(t *testing.T) {
	var ctx fasthttp.RequestCtx
	err := perrors.New(perrors.ErrCodeCapacityExceeded, "Team member is at capacity", errors.New("lin has 1 of 1 tasks"))
	NewResponse[any](context.Background(), "Team member is at capacity", nil).WithError(err).Write(&ctx)

	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	env := decode(t, &ctx)
	assert.True(t, env.Error)
	assert.Equal(t, "capacity_exceeded", env.ErrorDetails.Code.Code)
	assert.Equal(t, fasthttp.StatusConflict, env.Status)
}

func TestWithErrorHidesPlainErrorsBehindInternalError(t *testing.T) {
	var ctx fasthttp.RequestCtx
	NewResponse[any](context.Background(), "Failed to list projects", nil).
		WithError(errors.New("pq: connection reset")).
		Write(&ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	env := decode(t, &ctx)
	assert.Equal(t, "internal_server_error", env.ErrorDetails.Code.Code)
	assert.NotContains(t, env.ErrorDetails.Error, "pq:")
}

func TestWriteReportsEncodeFailure(t *testing.T) {
	var ctx fasthttp.RequestCtx
	NewResponse(context.Background(), "ok", make(chan int)).Write(&ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	env := decode(t, &ctx)
	assert.True(t, env.Error)
	assert.Equal(t, "internal_server_error", env.ErrorDetails.Code.Code)
}
