package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/user"
)

func RegisterUserRoutes(r *router.Router, svc *services.Services) {
	// List users
	r.GET("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleSuperAdmin) == nil {
			return
		}

		users, err := svc.User.List(stdCtx)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list users", err)
			return
		}

		writeList(ctx, stdCtx, "Users retrieved successfully", users)
	})

	// Create user
	r.POST("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor := requireRole(ctx, stdCtx, user.RoleSuperAdmin)
		if actor == nil {
			return
		}

		var body user.CreateUserRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.User.Create(stdCtx, &body, user.ByUser(actor.ID))
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to create user", err)
			return
		}

		writeOK(ctx, stdCtx, "User created successfully", created.Public(svc.Clock.Now()))
	})

	// User counts
	r.GET("/api/users/counts", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleSuperAdmin) == nil {
			return
		}

		counts, err := svc.User.Counts(stdCtx)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to count users", err)
			return
		}

		writeOK(ctx, stdCtx, "success", counts)
	})

	// Delete user
	r.DELETE("/api/users/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor := requireRole(ctx, stdCtx, user.RoleSuperAdmin)
		if actor == nil {
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		if err := svc.User.Delete(stdCtx, id, actor); err != nil {
			writeServiceError(ctx, stdCtx, "Failed to delete user", err)
			return
		}

		writeOK(ctx, stdCtx, "User deleted successfully", nil)
	})

	// Change password, for oneself or as superadmin
	r.PUT("/api/users/{id}/password", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		actor := CurrentUser(ctx)
		if actor == nil || actor.ID != id {
			if actor = requireRole(ctx, stdCtx, user.RoleSuperAdmin); actor == nil {
				return
			}
		}

		var body user.ChangePasswordRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if err := svc.User.ChangePassword(stdCtx, id, body.Password, actor); err != nil {
			writeServiceError(ctx, stdCtx, "Failed to change password", err)
			return
		}

		writeOK(ctx, stdCtx, "Password changed successfully", nil)
	})
}
