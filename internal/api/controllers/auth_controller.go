package controllers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/perrors"
	"github.com/curaious/dashboard/internal/services"
	"github.com/curaious/dashboard/internal/services/auth"
	"github.com/curaious/dashboard/internal/services/user"
)

const (
	SessionCookie    = "session_token"
	RememberMeCookie = "remember_me"
)

type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *user.PublicUser `json:"user,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
}

type ExtendResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionToken reads the session token from the cookie, then from an
// Authorization: Bearer header.
func SessionToken(ctx *fasthttp.RequestCtx) string {
	if token := string(ctx.Request.Header.Cookie(SessionCookie)); token != "" {
		return token
	}
	header := string(ctx.Request.Header.Peek("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func rememberMeFromCookie(ctx *fasthttp.RequestCtx) bool {
	return string(ctx.Request.Header.Cookie(RememberMeCookie)) == "true"
}

// clientLocation is what a superseded session is told about the new login.
func clientLocation(ctx *fasthttp.RequestCtx) string {
	if fwd := string(ctx.Request.Header.Peek("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return ctx.RemoteIP().String()
}

func setSessionCookies(ctx *fasthttp.RequestCtx, conf *config.Config, token string, rememberMe bool, maxAge time.Duration) {
	var session fasthttp.Cookie
	session.SetKey(SessionCookie)
	session.SetValue(token)
	session.SetPath("/")
	session.SetHTTPOnly(true)
	session.SetSecure(conf.IsProduction())
	session.SetSameSite(fasthttp.CookieSameSiteStrictMode)
	if rememberMe {
		session.SetMaxAge(int(maxAge.Seconds()))
	}
	ctx.Response.Header.SetCookie(&session)

	var remember fasthttp.Cookie
	remember.SetKey(RememberMeCookie)
	if rememberMe {
		remember.SetValue("true")
		remember.SetMaxAge(int(maxAge.Seconds()))
	} else {
		remember.SetValue("false")
	}
	remember.SetPath("/")
	remember.SetSecure(conf.IsProduction())
	remember.SetSameSite(fasthttp.CookieSameSiteStrictMode)
	ctx.Response.Header.SetCookie(&remember)
}

func clearSessionCookies(ctx *fasthttp.RequestCtx, conf *config.Config) {
	for _, key := range []string{SessionCookie, RememberMeCookie} {
		var cookie fasthttp.Cookie
		cookie.SetKey(key)
		cookie.SetValue("")
		cookie.SetPath("/")
		cookie.SetHTTPOnly(key == SessionCookie)
		cookie.SetSecure(conf.IsProduction())
		cookie.SetSameSite(fasthttp.CookieSameSiteStrictMode)
		cookie.SetExpire(fasthttp.CookieExpireDelete)
		ctx.Response.Header.SetCookie(&cookie)
	}
}

func RegisterAuthRoutes(r *router.Router, svc *services.Services, conf *config.Config) {
	// Login with email or username
	r.POST("/api/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req auth.LoginRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
			writeError(ctx, stdCtx, "Identifier and password are required", perrors.NewErrInvalidRequest("Identifier and password are required", errors.New("missing credentials")))
			return
		}

		req.Location = clientLocation(ctx)
		result, err := svc.Auth.Login(stdCtx, req)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to login", err)
			return
		}

		setSessionCookies(ctx, conf, result.Token, req.RememberMe, svc.Auth.Policy().RememberMeTimeout)
		writeOK(ctx, stdCtx, "Logged in successfully", result)
	})

	// Logout always succeeds from the client's point of view
	r.POST("/api/auth/logout", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		if _, err := svc.Auth.Logout(stdCtx, SessionToken(ctx)); err != nil {
			slog.WarnContext(stdCtx, "Logout failed, clearing cookies anyway", slog.Any("error", err))
		}

		clearSessionCookies(ctx, conf)
		writeOK(ctx, stdCtx, "Logged out successfully", nil)
	})

	// Slide the session expiry
	r.POST("/api/auth/extend", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		token := SessionToken(ctx)
		rememberMe := rememberMeFromCookie(ctx)
		expiresAt, err := svc.Auth.ExtendSession(stdCtx, token, rememberMe)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to extend session", err)
			return
		}

		if rememberMe {
			setSessionCookies(ctx, conf, token, true, svc.Auth.Policy().RememberMeTimeout)
		}
		writeOK(ctx, stdCtx, "Session extended", ExtendResponse{ExpiresAt: expiresAt})
	})

	// Current user, refreshing last activity on the way
	r.GET("/api/auth/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		u := CurrentUser(ctx)
		if u == nil {
			writeServiceError(ctx, stdCtx, "Authentication required", auth.ErrUnauthenticated)
			return
		}

		if _, err := svc.Auth.TouchActivity(stdCtx, u); err != nil {
			slog.WarnContext(stdCtx, "Failed to touch activity", slog.String("user_id", u.ID.String()), slog.Any("error", err))
		}

		writeOK(ctx, stdCtx, "success", u.Public(svc.Clock.Now()))
	})

	// Session status, answered for anonymous callers too
	r.GET("/api/auth/session", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		u, err := svc.Auth.VerifySession(stdCtx, SessionToken(ctx))
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to check session", err)
			return
		}
		if u == nil {
			writeOK(ctx, stdCtx, "success", SessionResponse{Authenticated: false})
			return
		}

		public := u.Public(svc.Clock.Now())
		writeOK(ctx, stdCtx, "success", SessionResponse{
			Authenticated: true,
			User:          &public,
			ExpiresAt:     u.SessionExpiresAt,
		})
	})
}
