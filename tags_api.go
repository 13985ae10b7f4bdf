package photoblog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/events"
)

const (
	msgTagExists = "A tag with this name already exists"
	msgTagInUse  = "Cannot delete tag that is still in use"
)

func (a *App) bindTag(c echo.Context) (TagInput, bool, error) {
	var in TagInput
	if err := c.Bind(&in); err != nil {
		return in, false, jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := c.Validate(&in); err != nil {
		return in, false, jsonError(c, http.StatusBadRequest, "Tag name is required")
	}
	return in, true, nil
}

func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Store.ListTags(c.Request().Context())
	if err != nil {
		a.l.Error("list tags failed", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch tags")
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleCreateTag(c echo.Context) error {
	in, ok, err := a.bindTag(c)
	if !ok {
		return err
	}
	tag, err := a.Store.CreateTag(c.Request().Context(), in.Name)
	if err != nil {
		if errors.Is(err, ErrTagExists) {
			return jsonError(c, http.StatusConflict, msgTagExists)
		}
		a.l.Error("create tag failed", zap.String("name", in.Name), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to create tag")
	}
	a.contentChanged(events.Event{Type: events.TagChanged, TagID: tag.ID})
	return c.JSON(http.StatusOK, tag)
}

func (a *App) handleUpdateTag(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid tag id")
	}
	in, ok, err := a.bindTag(c)
	if !ok {
		return err
	}
	tag, err := a.Store.UpdateTag(c.Request().Context(), id, in.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrTagExists):
			return jsonError(c, http.StatusConflict, msgTagExists)
		case errors.Is(err, ErrNotFound):
			return jsonError(c, http.StatusNotFound, "Tag not found")
		}
		a.l.Error("update tag failed", zap.Uint("id", id), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to update tag")
	}
	a.contentChanged(events.Event{Type: events.TagChanged, TagID: tag.ID})
	return c.JSON(http.StatusOK, tag)
}

func (a *App) handleDeleteTag(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid tag id")
	}
	if err := a.Store.DeleteTag(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrTagInUse):
			return jsonError(c, http.StatusConflict, msgTagInUse)
		case errors.Is(err, ErrNotFound):
			return jsonError(c, http.StatusNotFound, "Tag not found")
		}
		a.l.Error("delete tag failed", zap.Uint("id", id), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to delete tag")
	}
	a.contentChanged(events.Event{Type: events.TagChanged, TagID: id})
	return c.NoContent(http.StatusNoContent)
}
