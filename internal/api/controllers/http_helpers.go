package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/api/response"
	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services/auth"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
	"github.com/curaious/dashboard/internal/services/teammember"
	"github.com/curaious/dashboard/internal/services/user"
)

const (
	// TraceCtxKey holds the context carrying the propagated trace.
	TraceCtxKey = "traceCtx"
	// CurrentUserKey holds the *user.User resolved from the session token.
	CurrentUserKey = "currentUser"
)

// requestContext returns the context extracted by the middleware, falling back
// to Background for handlers invoked without it.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if c, ok := ctx.UserValue(TraceCtxKey).(context.Context); ok && c != nil {
		return c
	}
	return context.Background()
}

// CurrentUser returns the authenticated user, nil on public routes.
func CurrentUser(ctx *fasthttp.RequestCtx) *user.User {
	u, _ := ctx.UserValue(CurrentUserKey).(*user.User)
	return u
}

// requireRole writes 403 and returns nil when the caller is below min.
func requireRole(ctx *fasthttp.RequestCtx, stdCtx context.Context, min user.UserRole) *user.User {
	u := CurrentUser(ctx)
	if u == nil {
		writeError(ctx, stdCtx, "Authentication required", perrors.NewErrUnauthenticated("Authentication required", auth.ErrUnauthenticated))
		return nil
	}
	if !u.Role.AtLeast(min) {
		writeError(ctx, stdCtx, "Insufficient permissions", perrors.NewErrForbidden("Insufficient permissions", fmt.Errorf("role %s is below %s", u.Role, min)))
		return nil
	}
	return u
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(err).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func writeList[T any](ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, items []T) {
	response.NewList(stdCtx, message, items).Write(ctx)
}

// writeServiceError maps the sentinel errors of the service layer onto API
// error codes. Anything unrecognised is a 500 carrying fallback as its message.
func writeServiceError(ctx *fasthttp.RequestCtx, stdCtx context.Context, fallback string, err error) {
	var perr perrors.Err
	switch {
	case errors.As(err, &perr):
		writeError(ctx, stdCtx, perr.Message, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(ctx, stdCtx, "Invalid credentials", perrors.New(perrors.ErrCodeInvalidCredentials, "Invalid credentials", err))
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(ctx, stdCtx, "Authentication required", perrors.NewErrUnauthenticated("Authentication required", err))
	case errors.Is(err, auth.ErrSessionNotFound):
		writeError(ctx, stdCtx, "Session not found", perrors.New(perrors.ErrCodeSessionNotFound, "Session not found", err))
	case errors.Is(err, task.ErrCapacityExceeded):
		writeError(ctx, stdCtx, "Team member is at capacity", perrors.New(perrors.ErrCodeCapacityExceeded, "Team member is at capacity", err))
	case errors.Is(err, user.ErrCannotDeleteSelf), errors.Is(err, user.ErrCannotDeleteSuperadmin):
		writeError(ctx, stdCtx, "Operation not permitted", perrors.NewErrForbidden("Operation not permitted", err))
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, teammember.ErrTeamMemberNotFound):
		writeError(ctx, stdCtx, "Not found", perrors.NewErrNotFound("Not found", err))
	case errors.Is(err, user.ErrUserAlreadyExists),
		errors.Is(err, project.ErrProjectAlreadyExists),
		errors.Is(err, teammember.ErrTeamMemberAlreadyExists):
		writeError(ctx, stdCtx, "Already exists", perrors.New(perrors.ErrCodeConflict, "Already exists", err))
	case errors.Is(err, user.ErrInvalidUser),
		errors.Is(err, project.ErrInvalidProject),
		errors.Is(err, task.ErrInvalidTask),
		errors.Is(err, task.ErrAssigneeNotFound),
		errors.Is(err, teammember.ErrInvalidTeamMember):
		writeError(ctx, stdCtx, "Invalid request", perrors.NewErrInvalidRequest("Invalid request", err))
	default:
		writeError(ctx, stdCtx, fallback, perrors.NewErrInternalServerError(fallback, err))
	}
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamUUID(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, error) {
	val, err := pathParam(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(val)
}

func intQuery(ctx *fasthttp.RequestCtx, key string, def int) (int, error) {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return def, nil
	}

	return strconv.Atoi(string(raw))
}
