// Package photoblog is a personal photo blog built with Go, Echo, gorm and
// templ. It serves a public gallery with tag filtering and a JSON API that
// lets a single admin manage posts, tags and image uploads.
package photoblog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/events"
	"github.com/eringen/photoblog/imagemeta"
	"github.com/eringen/photoblog/objectstore"
	"github.com/eringen/photoblog/supabase"
)

// Uploader stores images and signs read URLs.
type Uploader interface {
	UploadImage(ctx context.Context, obj objectstore.Object) (*objectstore.Upload, error)
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// App is the central photoblog application. It wires together the store,
// cache, auth provider, uploader, middleware and templates.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Views  ViewFuncs

	l        *zap.Logger
	auth     AuthProvider
	uploader Uploader
	counter  Counter
	events   events.Bus
	closers  []func() error
	ready    bool
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
		l:      zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup connects every collaborator that was not injected and registers
// middleware and routes. Start calls it; tests call it directly and serve
// a.Echo themselves.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.validate(); err != nil {
		return err
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.Database, a.l)
		if err != nil {
			return fmt.Errorf("photoblog: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)

	if a.auth == nil {
		if a.Config.Supabase.URL == "" || a.Config.Supabase.AnonKey == "" {
			return errors.New("photoblog: SUPABASE_URL and SUPABASE_ANON_KEY are required")
		}
		a.auth = supabase.New(supabase.Config{
			URL:       a.Config.Supabase.URL,
			AnonKey:   a.Config.Supabase.AnonKey,
			JWTSecret: a.Config.Supabase.JWTSecret,
			Timeout:   a.Config.HTTPTimeout,
		})
	}

	if a.uploader == nil {
		client, err := objectstore.New(a.Config.ObjectStore(), objectstore.WithScrubber(imagemeta.Scrubber{}))
		switch {
		case errors.Is(err, objectstore.ErrNotConfigured):
			a.l.Warn("object store not configured, uploads are disabled")
		case err != nil:
			return fmt.Errorf("photoblog: init object store: %w", err)
		default:
			a.uploader = client
		}
	}

	if a.counter == nil {
		if url := a.Config.RateLimit.RedisURL; url != "" {
			rc, err := NewRedisCounter(url)
			if err != nil {
				return fmt.Errorf("photoblog: init rate limit counter: %w", err)
			}
			a.counter = rc
			a.closers = append(a.closers, rc.Close)
		} else {
			a.counter = NewMemoryCounter()
		}
	}

	if a.events == nil {
		if a.Config.NATSURL != "" {
			bus, err := events.ConnectNATS(a.Config.NATSURL, a.l)
			if err != nil {
				return fmt.Errorf("photoblog: init events: %w", err)
			}
			a.events = bus
		} else {
			a.events = events.Nop{}
		}
	}
	a.closers = append(a.closers, a.events.Close)
	if err := a.events.Subscribe(func(ev events.Event) {
		a.l.Debug("remote content change", zap.String("type", ev.Type), zap.String("origin", ev.Origin))
		a.Cache.Invalidate()
	}); err != nil {
		return fmt.Errorf("photoblog: subscribe events: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.l.Info("listening", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/posts/:id", a.handlePost)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/healthz", a.handleHealth)

	api := e.Group("/api", a.rateLimitMiddleware(), a.csrfMiddleware)

	api.GET("/csrf-token", a.handleCSRFToken)
	api.POST("/auth/set-session", a.handleSetSession)
	api.POST("/auth/clear-session", a.handleClearSession)

	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:id", a.handleGetPost)
	api.POST("/posts", a.handleCreatePost, a.requireAdmin)
	api.PUT("/posts/:id", a.handleUpdatePost, a.requireAdmin)
	api.DELETE("/posts/:id", a.handleDeletePost, a.requireAdmin)

	api.GET("/tags", a.handleListTags)
	api.POST("/tags", a.handleCreateTag, a.requireAdmin)
	api.PUT("/tags/:id", a.handleUpdateTag, a.requireAdmin)
	api.DELETE("/tags/:id", a.handleDeleteTag, a.requireAdmin)

	api.POST("/upload", a.handleUpload, a.requireAdmin)
	api.GET("/images/signed-url", a.handleSignedURL, a.requireAdmin)
}

// contentChanged drops cached pages and tells other instances to do the same.
func (a *App) contentChanged(ev events.Event) {
	a.Cache.Invalidate()
	if err := a.events.Publish(ev); err != nil {
		a.l.Warn("publish content event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

// Close releases the database, counter and event connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
