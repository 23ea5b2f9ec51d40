package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/task"
)

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	// Update task
	r.PUT("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body task.UpdateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.Update(stdCtx, id, &body, CurrentUser(ctx).ID)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to update task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task updated successfully", updated)
	})

	// Toggle status
	r.PATCH("/api/tasks/{id}/status", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body task.SetStatusRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.SetStatus(stdCtx, id, body.Status, CurrentUser(ctx).ID)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to update task status", err)
			return
		}

		writeOK(ctx, stdCtx, "Task status updated", updated)
	})

	// Delete task
	r.DELETE("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		if err := svc.Task.Delete(stdCtx, id); err != nil {
			writeServiceError(ctx, stdCtx, "Failed to delete task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task deleted successfully", nil)
	})
}
