// Package objectstore uploads images to an S3-compatible bucket and issues
// presigned read URLs.
package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotConfigured means a required credential or bucket is missing.
	ErrNotConfigured = errors.New("objectstore: not configured")
	// ErrMetadataCleaning means metadata was found but could not be removed.
	// The object is never uploaded in that case.
	ErrMetadataCleaning = errors.New("objectstore: failed to clean image metadata")
)

// StatusError is returned when the bucket answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("objectstore: unexpected status %d: %s", e.StatusCode, e.Body)
}

// MetadataScrubber finds and removes embedded metadata.
type MetadataScrubber interface {
	HasMetadata(data []byte) bool
	Strip(data []byte) ([]byte, error)
}

// Config holds the bucket location and credentials.
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string // default https://s3.<region>.amazonaws.com
	Region    string // default us-east-1
	PublicURL string // base for returned URLs, default <endpoint>/<bucket>
	KeyPrefix string
	Timeout   time.Duration
}

// Configured reports whether the required values are present.
func (c Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Object is an upload request.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload describes a stored object.
type Upload struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Client talks to one bucket.
type Client struct {
	cfg      Config
	endpoint *url.URL
	http     *http.Client
	signer   *v4.Signer
	scrubber MetadataScrubber
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for uploads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithScrubber sets the metadata scrubber run before every upload.
func WithScrubber(s MetadataScrubber) Option {
	return func(c *Client) { c.scrubber = s }
}

// WithClock overrides the signing clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a Client, or ErrNotConfigured when credentials or bucket are missing.
func New(cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://s3." + cfg.Region + ".amazonaws.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("objectstore: invalid endpoint %q", cfg.Endpoint)
	}
	c := &Client{
		cfg:      cfg,
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		signer:   newSigner(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadImage scrubs metadata from obj, signs a PUT and stores it.
func (c *Client) UploadImage(ctx context.Context, obj Object) (*Upload, error) {
	data := obj.Data
	if c.scrubber != nil && c.scrubber.HasMetadata(data) {
		cleaned, err := c.scrubber.Strip(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMetadataCleaning, err)
		}
		data = cleaned
	}

	key := c.ObjectKey(obj.Name)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	sum := sha256.Sum256(data)
	payloadHash := hex.EncodeToString(sum[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(key).String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("objectstore: build request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(headerContentSHA256, payloadHash)

	if err := c.sign(ctx, req, payloadHash, locationHeader); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	up := &Upload{Key: key, URL: c.PublicURL(key), Alt: altText(obj.Name)}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		up.Width, up.Height = cfg.Width, cfg.Height
	}
	return up, nil
}

// SignedURL returns a presigned GET URL for key. The lifetime is clamped
// to the SigV4 range of one second to seven days.
func (c *Client) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", errors.New("objectstore: empty key")
	}
	expires = clampExpiry(expires)

	u := c.objectURL(key)
	q := u.Query()
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(expires/time.Second)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("objectstore: build request: %w", err)
	}
	if err := c.sign(ctx, req, unsignedPayload, locationQuery); err != nil {
		return "", err
	}
	return req.URL.String(), nil
}

// ObjectKey derives a collision-resistant key from the current time and a
// sanitized file name.
func (c *Client) ObjectKey(name string) string {
	key := fmt.Sprintf("%d-%s", c.now().UnixMilli(), SanitizeName(name))
	if c.cfg.KeyPrefix != "" {
		key = path.Join(c.cfg.KeyPrefix, key)
	}
	return key
}

// PublicURL is where readers fetch key from.
func (c *Client) PublicURL(key string) string {
	if c.cfg.PublicURL != "" {
		return strings.TrimRight(c.cfg.PublicURL, "/") + "/" + key
	}
	return c.objectURL(key).String()
}

func (c *Client) objectURL(key string) *url.URL {
	u := *c.endpoint
	u.Path = path.Join("/", c.endpoint.Path, c.cfg.Bucket, key)
	return &u
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeName keeps only characters safe in an object key.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	return name
}

func altText(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	if base == "" || base == "." || base == "/" {
		return "image"
	}
	return base
}

func clampExpiry(d time.Duration) time.Duration {
	switch {
	case d < time.Second:
		return time.Second
	case d > maxPresignExpiry:
		return maxPresignExpiry
	}
	return d
}
