package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/curaious/dashboard/internal/api/controllers"
	"github.com/curaious/dashboard/internal/api/response"
	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services/auth"
)

var tracePropagator = propagation.TraceContext{}

func (s *Server) initNewRoutes() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	controllers.RegisterAuthRoutes(r, s.services, s.conf)
	controllers.RegisterUserRoutes(r, s.services)
	controllers.RegisterProjectRoutes(r, s.services)
	controllers.RegisterTaskRoutes(r, s.services)
	controllers.RegisterTeamMemberRoutes(r, s.services)
	controllers.RegisterActivityRoutes(r, s.services)

	return s.withMiddlewares(r.Handler)
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		s.applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		requestURI := string(ctx.URI().RequestURI())
		slog.Info("Started processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI))

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(ctx, propagation.HeaderCarrier(h))
		ctx.SetUserValue(controllers.TraceCtxKey, traceCtx)

		// Auth check
		if !isPublicRoute(ctx) {
			u, err := s.services.Auth.VerifySession(traceCtx, controllers.SessionToken(ctx))
			if err != nil {
				response.NewResponse[any](traceCtx, "Failed to verify session", nil).
					WithError(perrors.NewErrInternalServerError("Failed to verify session", err)).
					Write(ctx)
				return
			}
			if u == nil {
				response.NewResponse[any](traceCtx, "Authentication required", nil).
					WithError(perrors.NewErrUnauthenticated("Authentication required", auth.ErrUnauthenticated)).
					Write(ctx)
				return
			}

			// Store the user for downstream handlers
			ctx.SetUserValue(controllers.CurrentUserKey, u)
		}

		next(ctx)

		slog.Info("Finished processing",
			slog.String("method", string(ctx.Method())),
			slog.String("request_uri", requestURI),
			slog.Int("status", ctx.Response.StatusCode()),
			slog.Duration("duration", time.Since(start)))
	}
}

func (s *Server) applyCORS(ctx *fasthttp.RequestCtx) {
	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", string(ctx.Request.Header.Peek("Origin")))
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	headers.Set("Access-Control-Allow-Headers", s.conf.ALLOWED_HEADERS)
	headers.Set("Access-Control-Allow-Credentials", "true")
}

func isPublicRoute(ctx *fasthttp.RequestCtx) bool {
	path := string(ctx.Path())

	publicRoutes := []string{
		"/api/health",
		"/api/auth/login",
		"/api/auth/logout",
		"/api/auth/session",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}
	return false
}
