// Package supabase is a minimal client for the Supabase auth API. It only
// reads the identity behind an access token.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken        = errors.New("supabase: no access token")
	ErrSessionExpired = errors.New("supabase: session expired")
)

// APIError is a non-2xx answer from the auth API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// User is the subset of the auth user this service reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a decoded access token.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *User
}

// Config locates the project.
type Config struct {
	URL       string
	AnonKey   string
	JWTSecret string // optional, enables HS256 verification of access tokens
	Timeout   time.Duration
}

// Client calls the auth endpoints of one project.
type Client struct {
	baseURL   string
	anonKey   string
	jwtSecret []byte
	http      *http.Client
	now       func() time.Time
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	if cfg.JWTSecret != "" {
		c.jwtSecret = []byte(cfg.JWTSecret)
	}
	return c
}

// GetUser asks the auth server who owns accessToken. This is the
// authoritative check: the server rejects revoked or forged tokens.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: get user: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("supabase: decode user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("supabase: user response without id")
	}
	return &u, nil
}

// SignOut revokes the refresh tokens behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrNoToken
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", accessToken)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: sign out: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GetSession decodes the access token locally. With a JWT secret the HS256
// signature is verified; without one only the expiry is checked, so callers
// must only pass tokens that were verified with GetUser before being stored.
func (c *Client) GetSession(_ context.Context, accessToken, refreshToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}
	claims := &accessClaims{}
	if c.jwtSecret != nil {
		_, err := jwt.ParseWithClaims(accessToken, claims, func(*jwt.Token) (any, error) {
			return c.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrSessionExpired
			}
			return nil, fmt.Errorf("supabase: verify token: %w", err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
			return nil, fmt.Errorf("supabase: decode token: %w", err)
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
			return nil, ErrSessionExpired
		}
	}

	s := &Session{AccessToken: accessToken, RefreshToken: refreshToken}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.Subject != "" {
		s.User = &User{ID: claims.Subject, Email: claims.Email}
	}
	return s, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, accessToken string) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("supabase: url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Msg != "" {
			msg = payload.Msg
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
