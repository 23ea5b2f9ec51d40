package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
)

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// Create project
	r.POST("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body project.CreateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if body.Name == "" {
			writeError(ctx, stdCtx, "Name is required", perrors.NewErrInvalidRequest("Name is required", errors.New("name is required")))
			return
		}

		created, err := svc.Project.Create(stdCtx, &body, CurrentUser(ctx).ID)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project created successfully", created)
	})

	// List projects
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		projects, err := svc.Project.List(stdCtx)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list projects", perrors.NewErrInternalServerError("Failed to list projects", err))
			return
		}

		writeList(ctx, stdCtx, "Projects retrieved successfully", projects)
	})

	// Get project
	r.GET("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		p, err := svc.Project.GetByID(stdCtx, id)
		if err != nil {
			switch {
			case errors.Is(err, project.ErrProjectNotFound):
				writeError(ctx, stdCtx, "Project not found", perrors.New(perrors.ErrCodeNotFound, "Project not found", err))
			default:
				writeError(ctx, stdCtx, "Failed to get project", perrors.NewErrInternalServerError("Failed to get project", err))
			}
			return
		}

		writeOK(ctx, stdCtx, "Project retrieved successfully", p)
	})

	// Update project
	r.PUT("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body project.UpdateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if body.Name != nil && *body.Name == "" {
			writeError(ctx, stdCtx, "Name cannot be empty", perrors.NewErrInvalidRequest("Name cannot be empty", errors.New("name cannot be empty")))
			return
		}

		updated, err := svc.Project.Update(stdCtx, id, &body)
		if err != nil {
			switch {
			case errors.Is(err, project.ErrProjectNotFound):
				writeError(ctx, stdCtx, "Project not found", perrors.New(perrors.ErrCodeNotFound, "Project not found", err))
			case errors.Is(err, project.ErrProjectAlreadyExists):
				writeError(ctx, stdCtx, "Project with this name already exists", perrors.New(perrors.ErrCodeConflict, "Project with this name already exists", err))
			default:
				writeServiceError(ctx, stdCtx, "Failed to update project", err)
			}
			return
		}

		writeOK(ctx, stdCtx, "Project updated successfully", updated)
	})

	// Delete project and its tasks
	r.DELETE("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		if err := svc.Project.Delete(stdCtx, id); err != nil {
			switch {
			case errors.Is(err, project.ErrProjectNotFound):
				writeError(ctx, stdCtx, "Project not found", perrors.New(perrors.ErrCodeNotFound, "Project not found", err))
			default:
				writeError(ctx, stdCtx, "Failed to delete project", perrors.NewErrInternalServerError("Failed to delete project", err))
			}
			return
		}

		writeOK(ctx, stdCtx, "Project deleted successfully", nil)
	})

	// Force a stats recompute
	r.POST("/api/projects/{id}/recompute", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		p, err := svc.Stats.Recompute(stdCtx, id)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to recompute project stats", err)
			return
		}

		writeOK(ctx, stdCtx, "Project stats recomputed", p)
	})

	// List tasks of a project
	r.GET("/api/projects/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		tasks, err := svc.Task.ListByProject(stdCtx, id)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}

		writeList(ctx, stdCtx, "Tasks retrieved successfully", tasks)
	})

	// Create a task in a project
	r.POST("/api/projects/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body task.CreateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Task.Create(stdCtx, id, &body, CurrentUser(ctx).ID)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task created successfully", created)
	})
}
