package photoblog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/events"
)

const (
	msgPostRequired = "Title, description, date, and at least one image are required"
	msgInvalidDate  = "Invalid date format. Use YYYY-MM-DD"
)

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bindPost decodes and validates a post body. It writes the 400 response
// itself and reports false when the body is unusable.
func (a *App) bindPost(c echo.Context) (PostInput, bool, error) {
	var in PostInput
	if err := c.Bind(&in); err != nil {
		return in, false, jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	in.normalize()
	if err := c.Validate(&in); err != nil {
		return in, false, jsonError(c, http.StatusBadRequest, msgPostRequired)
	}
	if !validDate(in.Date) {
		return in, false, jsonError(c, http.StatusBadRequest, msgInvalidDate)
	}
	return in, true, nil
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Store.ListPosts(c.Request().Context(), c.QueryParam("tag"))
	if err != nil {
		a.l.Error("list posts failed", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch posts")
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGetPost(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid post id")
	}
	post, err := a.Store.GetPost(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "Post not found")
		}
		a.l.Error("get post failed", zap.Uint("id", id), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch post")
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleCreatePost(c echo.Context) error {
	in, ok, err := a.bindPost(c)
	if !ok {
		return err
	}
	post, err := a.Store.CreatePost(c.Request().Context(), in)
	if err != nil {
		a.l.Error("create post failed", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to create post")
	}
	a.contentChanged(events.Event{Type: events.PostCreated, PostID: post.ID})
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleUpdatePost(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid post id")
	}
	in, ok, err := a.bindPost(c)
	if !ok {
		return err
	}
	post, err := a.Store.UpdatePost(c.Request().Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "Post not found")
		}
		a.l.Error("update post failed", zap.Uint("id", id), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to update post")
	}
	a.contentChanged(events.Event{Type: events.PostUpdated, PostID: post.ID})
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid post id")
	}
	if err := a.Store.DeletePost(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "Post not found")
		}
		a.l.Error("delete post failed", zap.Uint("id", id), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to delete post")
	}
	a.contentChanged(events.Event{Type: events.PostDeleted, PostID: id})
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
