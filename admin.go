package photoblog

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/photoblog/supabase"
)

const (
	sessionName       = "sb_session"
	sessionAccessKey  = "access_token"
	sessionRefreshKey = "refresh_token"
	serverSessionKey  = "server_session"
)

// AuthProvider resolves the identity behind stored auth tokens.
type AuthProvider interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	GetSession(ctx context.Context, accessToken, refreshToken string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ServerSession is the result of the two independent identity lookups.
// Either half may be missing while the other is present.
type ServerSession struct {
	User       *supabase.User
	Session    *supabase.Session
	UserErr    error
	SessionErr error
}

// IsAdmin reports whether session belongs to the configured admin.
func IsAdmin(session *supabase.Session, adminEmail string) bool {
	if session == nil || session.User == nil || session.User.Email == "" || adminEmail == "" {
		return false
	}
	return session.User.Email == adminEmail
}

func sessionTokens(c echo.Context) (access, refresh string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", ""
	}
	access, _ = sess.Values[sessionAccessKey].(string)
	refresh, _ = sess.Values[sessionRefreshKey].(string)
	return access, refresh
}

// getServerSession looks up the current user and session concurrently.
// A failed lookup is logged and recorded; it does not cancel the other.
func (a *App) getServerSession(c echo.Context) *ServerSession {
	access, refresh := sessionTokens(c)
	out := &ServerSession{}
	if access == "" {
		return out
	}

	ctx := c.Request().Context()
	var g errgroup.Group
	g.Go(func() error {
		u, err := a.auth.GetUser(ctx, access)
		if err != nil {
			a.l.Warn("get user failed", zap.Error(err))
			out.UserErr = err
			return nil
		}
		out.User = u
		return nil
	})
	g.Go(func() error {
		s, err := a.auth.GetSession(ctx, access, refresh)
		if err != nil {
			a.l.Warn("get session failed", zap.Error(err))
			out.SessionErr = err
			return nil
		}
		out.Session = s
		return nil
	})
	_ = g.Wait()
	return out
}

// requireAdmin rejects requests without a session (401 "No session") and
// sessions of anyone but the admin (401 "Not admin").
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		srv := a.getServerSession(c)
		if srv.Session == nil {
			return jsonError(c, http.StatusUnauthorized, "No session")
		}
		if !IsAdmin(srv.Session, a.Config.AdminEmail) {
			return jsonError(c, http.StatusUnauthorized, "Not admin")
		}
		c.Set(serverSessionKey, srv)
		return next(c)
	}
}

type setSessionRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// handleSetSession stores provider tokens in the session cookie after the
// provider confirms the access token.
func (a *App) handleSetSession(c echo.Context) error {
	var req setSessionRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if err := c.Validate(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Missing tokens")
	}

	user, err := a.auth.GetUser(c.Request().Context(), req.AccessToken)
	if err != nil {
		a.l.Info("rejected session tokens", zap.Error(err))
		return jsonError(c, http.StatusUnauthorized, "Invalid session")
	}

	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionAccessKey] = req.AccessToken
	sess.Values[sessionRefreshKey] = req.RefreshToken
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	a.l.Info("session established", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// handleClearSession signs out at the provider (best effort) and expires
// the session cookie.
func (a *App) handleClearSession(c echo.Context) error {
	access, _ := sessionTokens(c)
	if access != "" {
		if err := a.auth.SignOut(c.Request().Context(), access); err != nil {
			a.l.Warn("provider sign out failed", zap.Error(err))
		}
	}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
