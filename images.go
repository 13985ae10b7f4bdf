package photoblog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/imagemeta"
	"github.com/eringen/photoblog/objectstore"
)

const defaultSignedURLExpiry = time.Hour

type uploadResponse struct {
	URL            string     `json:"url"`
	Alt            string     `json:"alt"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	TimestampTaken *time.Time `json:"timestampTaken,omitempty"`
}

// handleUpload accepts one image in the "file" form field, prepares it and
// hands it to the object store.
func (a *App) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return jsonError(c, http.StatusBadRequest, "File too large")
		}
		return jsonError(c, http.StatusBadRequest, "No file provided")
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return jsonError(c, http.StatusBadRequest, "File must be an image")
	}
	if file.Size > a.Config.Upload.MaxBytes {
		return jsonError(c, http.StatusBadRequest, "File too large")
	}
	if a.uploader == nil {
		a.l.Error("upload rejected: object store not configured")
		return jsonError(c, http.StatusInternalServerError, "Server configuration error")
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, a.Config.Upload.MaxBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > a.Config.Upload.MaxBytes {
		return jsonError(c, http.StatusBadRequest, "File too large")
	}

	resp := uploadResponse{}
	if taken, ok := imagemeta.CaptureTime(data); ok {
		resp.TimestampTaken = &taken
	}

	name := file.Filename
	if a.Config.Upload.Preprocess {
		res, err := imagemeta.Preprocess(data, imagemeta.Options{
			MaxWidth:   a.Config.Upload.MaxWidth,
			MaxHeight:  a.Config.Upload.MaxHeight,
			Quality:    a.Config.Upload.Quality,
			OutputType: a.Config.Upload.OutputType,
		})
		if errors.Is(err, imagemeta.ErrTooManyPixels) {
			a.l.Info("upload exceeds pixel limit", zap.String("name", name), zap.Error(err))
			return jsonError(c, http.StatusBadRequest, "Image dimensions too large")
		}
		if err != nil {
			a.l.Info("upload is not a decodable image", zap.String("name", name), zap.Error(err))
			return jsonError(c, http.StatusBadRequest, "Invalid image")
		}
		data = res.Data
		contentType = res.ContentType
		name = strings.TrimSuffix(name, filepath.Ext(name)) + res.Extension
	}

	up, err := a.uploader.UploadImage(c.Request().Context(), objectstore.Object{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		a.l.Error("upload failed", zap.String("name", name), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to upload image")
	}

	resp.URL = up.URL
	resp.Alt = up.Alt
	resp.Width = up.Width
	resp.Height = up.Height
	a.l.Info("image uploaded", zap.String("key", up.Key), zap.Int("bytes", len(data)))
	return c.JSON(http.StatusOK, resp)
}

// handleSignedURL returns a presigned read URL for ?key=, valid for
// ?expires= seconds (default one hour).
func (a *App) handleSignedURL(c echo.Context) error {
	key := strings.TrimSpace(c.QueryParam("key"))
	if key == "" {
		return jsonError(c, http.StatusBadRequest, "Missing key")
	}
	expires := defaultSignedURLExpiry
	if raw := c.QueryParam("expires"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return jsonError(c, http.StatusBadRequest, "Invalid expires")
		}
		expires = time.Duration(secs) * time.Second
	}
	if a.uploader == nil {
		return jsonError(c, http.StatusInternalServerError, "Server configuration error")
	}
	url, err := a.uploader.SignedURL(c.Request().Context(), key, expires)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotConfigured) {
			return jsonError(c, http.StatusInternalServerError, "Server configuration error")
		}
		a.l.Error("sign url failed", zap.String("key", key), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to sign URL")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
