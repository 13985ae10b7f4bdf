package photoblog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := strings.TrimSpace(c.QueryParam("tag"))
	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.siteView(), toViewPosts(posts), toViewTags(tags), tag))
}

func (a *App) handlePost(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
	}
	post, err := a.Cache.GetPost(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
		}
		return err
	}
	return Render(c, a.Views.Post(a.siteView(), toViewPost(post)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		a.l.Error("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpErrorHandler answers API routes with JSON and pages with HTML. Details
// of server errors only reach the log.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= 500 {
		a.l.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		msg = "Internal server error"
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		switch {
		case code == http.StatusNotFound:
			msg = "Not found"
		case code == http.StatusRequestEntityTooLarge && c.Request().URL.Path == "/api/upload":
			code, msg = http.StatusBadRequest, "File too large"
		}
		_ = jsonError(c, code, msg)
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, a.Views.NotFound(a.siteView()))
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError(a.siteView()))
	default:
		_ = c.String(code, msg)
	}
}
