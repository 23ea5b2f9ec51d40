package controllers

import (
	"fmt"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/user"
)

const defaultActivityLimit = 100

func RegisterActivityRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/activity", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if requireRole(ctx, stdCtx, user.RoleSuperAdmin) == nil {
			return
		}

		limit, err := intQuery(ctx, "limit", defaultActivityLimit)
		if err == nil && limit <= 0 {
			err = fmt.Errorf("limit must be positive, got %d", limit)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Invalid limit", perrors.NewErrInvalidRequest("Invalid limit", err))
			return
		}

		entries, err := svc.Activity.List(stdCtx, limit)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list activity", err)
			return
		}

		writeList(ctx, stdCtx, "Activity retrieved successfully", entries)
	})
}
