package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/teammember"
	"github.com/curaious/dashboard/internal/services/user"
)

func RegisterTeamMemberRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/team-members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		members, err := svc.TeamMember.List(stdCtx)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list team members", err)
			return
		}

		writeList(ctx, stdCtx, "Team members retrieved successfully", members)
	})

	// Members that can take one more task
	r.GET("/api/team-members/available", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		members, err := svc.TeamMember.ListAvailable(stdCtx)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list available team members", err)
			return
		}

		writeList(ctx, stdCtx, "Team members retrieved successfully", members)
	})

	r.POST("/api/team-members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleManager) == nil {
			return
		}

		var body teammember.CreateTeamMemberRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.TeamMember.Create(stdCtx, &body)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to create team member", err)
			return
		}

		writeOK(ctx, stdCtx, "Team member created successfully", created)
	})

	// Apply one max capacity to every member
	r.PUT("/api/team-members/capacity", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleManager) == nil {
			return
		}

		var body teammember.SetCapacityRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		members, err := svc.TeamMember.SetGlobalMaxCapacity(stdCtx, body.MaxCapacity)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to update capacity", err)
			return
		}

		writeList(ctx, stdCtx, "Capacity updated successfully", members)
	})

	r.DELETE("/api/team-members/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleManager) == nil {
			return
		}

		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		if err := svc.TeamMember.Delete(stdCtx, id); err != nil {
			writeServiceError(ctx, stdCtx, "Failed to delete team member", err)
			return
		}

		writeOK(ctx, stdCtx, "Team member deleted successfully", nil)
	})
}
