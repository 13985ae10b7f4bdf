package photoblog

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/events"
	"github.com/eringen/photoblog/objectstore"
	"github.com/eringen/photoblog/supabase"
)

const (
	adminToken = "admin-token"
	guestToken = "guest-token"
	adminEmail = "admin@example.com"
)

// fakeAuth maps access tokens to user emails.
type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]string
	signOuts []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{
		adminToken: adminEmail,
		guestToken: "guest@example.com",
	}}
}

func (f *fakeAuth) GetUser(_ context.Context, access string) (*supabase.User, error) {
	email, ok := f.users[access]
	if !ok {
		return nil, &supabase.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid JWT"}
	}
	return &supabase.User{ID: "user-" + access, Email: email}, nil
}

func (f *fakeAuth) GetSession(ctx context.Context, access, refresh string) (*supabase.Session, error) {
	u, err := f.GetUser(ctx, access)
	if err != nil {
		return nil, err
	}
	return &supabase.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: time.Now().Add(time.Hour), User: u}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, access string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts = append(f.signOuts, access)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects []objectstore.Object
	fail    bool
}

func (f *fakeUploader) UploadImage(_ context.Context, obj objectstore.Object) (*objectstore.Upload, error) {
	if f.fail {
		return nil, &objectstore.StatusError{StatusCode: http.StatusForbidden, Body: "AccessDenied"}
	}
	f.mu.Lock()
	f.objects = append(f.objects, obj)
	f.mu.Unlock()
	up := &objectstore.Upload{Key: "1-" + obj.Name, URL: "https://cdn.example.com/1-" + obj.Name, Alt: obj.Name}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(obj.Data)); err == nil {
		up.Width, up.Height = cfg.Width, cfg.Height
	}
	return up, nil
}

func (f *fakeUploader) SignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	return "https://bucket.example.com/" + key + "?X-Amz-Expires=" + strconv.Itoa(int(expires.Seconds())), nil
}

type testClient struct {
	t    *testing.T
	app  *App
	srv  *httptest.Server
	http *http.Client
	csrf string
	auth *fakeAuth
	up   *fakeUploader
}

type testOption func(cfg *Config, opts *[]Option)

func withoutUploader() testOption {
	return func(_ *Config, opts *[]Option) {
		*opts = append(*opts, func(a *App) { a.uploader = nil })
	}
}

func newTestClient(t *testing.T, tweaks ...testOption) *testClient {
	t.Helper()
	cfg := Config{
		AdminEmail:    adminEmail,
		SessionSecret: "test-secret-0123456789abcdef0123",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(t.TempDir(), "api.db"),
		},
	}
	auth := newFakeAuth()
	up := &fakeUploader{}
	opts := []Option{
		WithLogger(zap.NewNop()),
		WithAuthProvider(auth),
		WithUploader(up),
		WithEventBus(events.Nop{}),
	}
	for _, tw := range tweaks {
		tw(&cfg, &opts)
	}

	app := New(cfg, opts...)
	require.NoError(t, app.Setup())
	srv := httptest.NewServer(app.Echo)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		app:  app,
		srv:  srv,
		http: &http.Client{Jar: jar},
		auth: auth,
		up:   up,
	}
}

func (c *testClient) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *testClient) send(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *testClient) fetchCSRF() {
	c.t.Helper()
	resp, body := c.do(http.MethodGet, "/api/csrf-token", nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var out struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(c.t, json.Unmarshal(body, &out))
	require.NotEmpty(c.t, out.CSRFToken)
	c.csrf = out.CSRFToken
}

func (c *testClient) login(token string) {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/auth/set-session", map[string]string{
		"access_token":  token,
		"refresh_token": "refresh-" + token,
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(body))
}

func (c *testClient) admin() *testClient {
	c.fetchCSRF()
	c.login(adminToken)
	return c
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out.Error
}

func postBody(title string, tags ...string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "about " + title,
		"date":        "2024-05-06",
		"tags":        tags,
		"images": []map[string]any{
			{"url": "https://cdn.example.com/" + title + ".jpg", "alt": title, "width": 640, "height": 480},
		},
	}
}

func TestAPIRejectsMutationWithoutCSRF(t *testing.T) {
	c := newTestClient(t)
	c.login(adminToken)

	resp, body := c.do(http.MethodPost, "/api/tags", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid CSRF token", errorMessage(t, body))

	c.csrf = "forged"
	resp, _ = c.do(http.MethodPost, "/api/tags", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPIRequiresAdmin(t *testing.T) {
	c := newTestClient(t)
	c.fetchCSRF()

	resp, body := c.do(http.MethodPost, "/api/tags", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No session", errorMessage(t, body))

	c.login(guestToken)
	resp, body = c.do(http.MethodPost, "/api/tags", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not admin", errorMessage(t, body))

	resp, _ = c.do(http.MethodGet, "/api/tags", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads stay public")
}

func TestSetSessionValidation(t *testing.T) {
	c := newTestClient(t)

	resp, body := c.do(http.MethodPost, "/api/auth/set-session", map[string]string{"access_token": "a"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing tokens", errorMessage(t, body))

	resp, body = c.do(http.MethodPost, "/api/auth/set-session", map[string]string{
		"access_token":  "bogus",
		"refresh_token": "r",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid session", errorMessage(t, body))
}

func TestClearSession(t *testing.T) {
	c := newTestClient(t).admin()

	resp, _ := c.do(http.MethodPost, "/api/auth/clear-session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{adminToken}, c.auth.signOuts)

	resp, body := c.do(http.MethodPost, "/api/tags", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No session", errorMessage(t, body))
}

func TestTagAPI(t *testing.T) {
	c := newTestClient(t).admin()

	resp, body := c.do(http.MethodPost, "/api/tags", map[string]string{"name": "Landscape"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var landscape Tag
	require.NoError(t, json.Unmarshal(body, &landscape))
	assert.Equal(t, "Landscape", landscape.Name)
	assert.Zero(t, landscape.PostCount)
	assert.Contains(t, string(body), `"post_count":0`)

	resp, body = c.do(http.MethodPost, "/api/tags", map[string]string{"name": "landscape"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, msgTagExists, errorMessage(t, body))

	resp, body = c.do(http.MethodPost, "/api/tags", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Tag name is required", errorMessage(t, body))

	resp, body = c.do(http.MethodPost, "/api/tags", map[string]string{"name": "City"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var city Tag
	require.NoError(t, json.Unmarshal(body, &city))

	resp, _ = c.do(http.MethodPut, fmt.Sprintf("/api/tags/%d", city.ID), map[string]string{"name": "LANDSCAPE"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = c.do(http.MethodPut, "/api/tags/999", map[string]string{"name": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodPut, fmt.Sprintf("/api/tags/%d", city.ID), map[string]string{"name": "Urban"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"Urban"`)

	resp, _ = c.do(http.MethodPost, "/api/posts", postBody("hills", "landscape"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = c.do(http.MethodDelete, fmt.Sprintf("/api/tags/%d", landscape.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, msgTagInUse, errorMessage(t, body))

	resp, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/tags/%d", city.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags []Tag
	require.NoError(t, json.Unmarshal(body, &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "Landscape", tags[0].Name)
	assert.Equal(t, int64(1), tags[0].PostCount)
}

func TestPostAPI(t *testing.T) {
	c := newTestClient(t).admin()

	missing := postBody("x")
	missing["images"] = []map[string]any{}
	resp, body := c.do(http.MethodPost, "/api/posts", missing)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgPostRequired, errorMessage(t, body))

	badDate := postBody("x")
	badDate["date"] = "06/05/2024"
	resp, body = c.do(http.MethodPost, "/api/posts", badDate)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgInvalidDate, errorMessage(t, body))

	resp, body = c.do(http.MethodPost, "/api/posts", postBody("dunes", "desert", " Desert ", ""))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created Post
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, []string{"desert"}, created.TagNames())
	require.Len(t, created.Images, 1)
	path := fmt.Sprintf("/api/posts/%d", created.ID)

	resp, body = c.do(http.MethodGet, "/api/posts?tag=DESERT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []Post
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)

	update := postBody("dunes at dusk", "sand")
	update["images"] = []map[string]any{
		{"id": created.Images[0].ID, "url": created.Images[0].URL, "alt": "kept"},
		{"url": "https://cdn.example.com/extra.jpg"},
	}
	resp, body = c.do(http.MethodPut, path, update)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated Post
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "dunes at dusk", updated.Title)
	assert.Equal(t, []string{"sand"}, updated.TagNames())
	require.Len(t, updated.Images, 2)
	assert.Equal(t, created.Images[0].ID, updated.Images[0].ID)

	resp, _ = c.do(http.MethodPut, "/api/posts/999", update)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.do(http.MethodGet, "/api/posts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = c.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	resp, body = c.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", errorMessage(t, body))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (c *testClient) upload(filename, contentType string, data []byte) (*http.Response, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/api/upload", &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func TestUploadAPI(t *testing.T) {
	c := newTestClient(t, func(cfg *Config, _ *[]Option) {
		cfg.Upload.Preprocess = true
		cfg.Upload.MaxWidth = 4
	}).admin()

	resp, body := c.upload("My Photo.png", "image/png", pngBytes(t, 8, 6))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out uploadResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "https://cdn.example.com/1-My Photo.jpg", out.URL)
	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 3, out.Height)
	assert.Nil(t, out.TimestampTaken)

	require.Len(t, c.up.objects, 1)
	assert.Equal(t, "image/jpeg", c.up.objects[0].ContentType)

	resp, body = c.upload("notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File must be an image", errorMessage(t, body))

	resp, body = c.upload("broken.png", "image/png", []byte("not really a png"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid image", errorMessage(t, body))

	huge := pngBytes(t, 2, 2)
	binary.BigEndian.PutUint32(huge[16:], 20000)
	binary.BigEndian.PutUint32(huge[20:], 20000)
	binary.BigEndian.PutUint32(huge[29:], crc32.ChecksumIEEE(huge[12:29]))
	resp, body = c.upload("huge.png", "image/png", huge)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Image dimensions too large", errorMessage(t, body))

	resp, body = c.do(http.MethodPost, "/api/upload", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", errorMessage(t, body))

	c.up.fail = true
	resp, body = c.upload("a.png", "image/png", pngBytes(t, 2, 2))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to upload image", errorMessage(t, body))
}

func TestUploadLimits(t *testing.T) {
	c := newTestClient(t, func(cfg *Config, _ *[]Option) {
		cfg.Upload.MaxBytes = 16
	}).admin()

	resp, body := c.upload("big.png", "image/png", pngBytes(t, 8, 8))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File too large", errorMessage(t, body))

	// Past the request body limit the upload is refused before the handler runs.
	resp, body = c.upload("huge.png", "image/png", make([]byte, 1<<20+64<<10))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File too large", errorMessage(t, body))
}

func TestUploadWithoutObjectStore(t *testing.T) {
	c := newTestClient(t, withoutUploader()).admin()

	resp, body := c.upload("a.png", "image/png", pngBytes(t, 2, 2))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server configuration error", errorMessage(t, body))
}

func TestSignedURLAPI(t *testing.T) {
	c := newTestClient(t).admin()

	resp, body := c.do(http.MethodGet, "/api/images/signed-url?key=a.jpg&expires=60", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "X-Amz-Expires=60")

	resp, body = c.do(http.MethodGet, "/api/images/signed-url", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing key", errorMessage(t, body))

	resp, _ = c.do(http.MethodGet, "/api/images/signed-url?key=a.jpg&expires=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIRateLimit(t *testing.T) {
	c := newTestClient(t, func(cfg *Config, _ *[]Option) {
		cfg.RateLimit.Max = 2
		cfg.RateLimit.Window = time.Minute
	})

	for i := 0; i < 2; i++ {
		resp, _ := c.do(http.MethodGet, "/api/tags", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := c.do(http.MethodGet, "/api/tags", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests", errorMessage(t, body))

	resp, _ = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "pages are not rate limited")
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	c := newTestClient(t)
	resp, body := c.do(http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", errorMessage(t, body))
}

func TestPublicPages(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	resp, body := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "No posts yet.")

	post, err := c.app.Store.CreatePost(ctx, PostInput{
		Title:       "Rocks & <Waves>",
		Description: "coast",
		Date:        "2024-07-08",
		Tags:        []string{"sea"},
		Images:      []ImageInput{{URL: "https://cdn.example.com/rocks.jpg", Alt: "rocks", Width: 10, Height: 5}},
	})
	require.NoError(t, err)
	_, err = c.app.Store.CreatePost(ctx, samplePost("meadow", "2024-07-01", "grass"))
	require.NoError(t, err)
	c.app.Cache.Invalidate()

	resp, body = c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html := string(body)
	assert.Contains(t, html, "Rocks &amp; &lt;Waves&gt;")
	assert.NotContains(t, html, "<Waves>")
	assert.Contains(t, html, "meadow")
	assert.Contains(t, html, `href="/?tag=sea"`)

	resp, body = c.do(http.MethodGet, "/?tag=SEA", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Rocks &amp;")
	assert.NotContains(t, string(body), "<h2>meadow</h2>")

	resp, body = c.do(http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `src="https://cdn.example.com/rocks.jpg"`)
	assert.Contains(t, string(body), "application/ld+json")

	resp, body = c.do(http.MethodGet, "/posts/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Not found")

	resp, body = c.do(http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), fmt.Sprintf("http://localhost:3000/posts/%d", post.ID))
	assert.Contains(t, string(body), `<enclosure url="https://cdn.example.com/rocks.jpg"`)

	resp, body = c.do(http.MethodGet, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http://localhost:3000/?tag=sea")

	resp, _ = c.do(http.MethodGet, "/public/style.css", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestContentChangeInvalidatesCache(t *testing.T) {
	c := newTestClient(t).admin()

	resp, body := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "No posts yet.")

	resp, _ = c.do(http.MethodPost, "/api/posts", postBody("fresh"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, body = c.do(http.MethodGet, "/", nil)
	assert.Contains(t, string(body), "fresh")
}

func TestSetupRequiresSecrets(t *testing.T) {
	app := New(Config{AdminEmail: adminEmail}, WithAuthProvider(newFakeAuth()))
	err := app.Setup()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "SESSION_SECRET"))
	assert.False(t, errors.Is(err, ErrNotFound))
}
