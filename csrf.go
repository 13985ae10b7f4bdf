package photoblog

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	csrfCookieName = "csrf-token"
	csrfHeader     = "X-CSRF-Token"
	xsrfHeader     = "X-XSRF-Token"
	csrfTokenBytes = 32
)

// GenerateToken returns a random hex-encoded CSRF token.
func GenerateToken() (string, error) {
	b := securecookie.GenerateRandomKey(csrfTokenBytes)
	if b == nil {
		return "", errors.New("csrf: no randomness available")
	}
	return hex.EncodeToString(b), nil
}

// VerifyToken reports whether token and expected are both non-empty and
// equal. The comparison takes the same time for every pair of equal-length
// inputs.
func VerifyToken(token, expected string) bool {
	if token == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// TokenFromHeaders returns the CSRF token sent by the client, preferring
// X-CSRF-Token over X-XSRF-Token. It returns "" when neither is present.
func TokenFromHeaders(h http.Header) string {
	if v := h.Get(csrfHeader); v != "" {
		return v
	}
	return h.Get(xsrfHeader)
}

// csrfExempt reports whether a request may skip the double-submit check:
// reads, the token endpoint and the auth endpoints.
func csrfExempt(method, path string) bool {
	return method == http.MethodGet ||
		path == "/api/csrf-token" ||
		strings.HasPrefix(path, "/api/auth/")
}

func (a *App) csrfMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if csrfExempt(req.Method, req.URL.Path) {
			return next(c)
		}
		var expected string
		if cookie, err := req.Cookie(csrfCookieName); err == nil {
			expected = cookie.Value
		}
		if !VerifyToken(TokenFromHeaders(req.Header), expected) {
			a.l.Debug("csrf check failed",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Bool("cookie", expected != ""))
			return jsonError(c, http.StatusForbidden, "Invalid CSRF token")
		}
		return next(c)
	}
}

func (a *App) handleCSRFToken(c echo.Context) error {
	token, err := GenerateToken()
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Config.Production,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"csrfToken": token})
}
