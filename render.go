package photoblog

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/photoblog/views"
)

// ViewFuncs holds the templ components used for HTML pages. Replace any of
// them with WithViews to restyle the site.
type ViewFuncs struct {
	Home        func(site views.SiteConfig, posts []views.Post, tags []views.Tag, activeTag string) templ.Component
	Post        func(site views.SiteConfig, post views.Post) templ.Component
	NotFound    func(site views.SiteConfig) templ.Component
	ServerError func(site views.SiteConfig) templ.Component
}

// DefaultViews returns the built-in gallery templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		Post:        views.PostPage,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) siteView() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Site.Name,
		URL:         a.Config.Site.URL,
		Description: a.Config.Site.Description,
		Author:      a.Config.Site.Author,
	}
}

func toViewPost(p Post) views.Post {
	vp := views.Post{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Date:        p.Date,
		Tags:        p.TagNames(),
		Link:        postPath(p.ID),
		Images:      make([]views.Image, len(p.Images)),
	}
	if p.Notes != nil {
		vp.Notes = *p.Notes
	}
	for i, img := range p.Images {
		vi := views.Image{URL: img.URL, Alt: img.Alt, Width: img.Width, Height: img.Height}
		if img.TimestampTaken != nil {
			vi.TakenAt = img.TimestampTaken.Format("2 Jan 2006 15:04")
		}
		vp.Images[i] = vi
	}
	return vp
}

func toViewPosts(posts []Post) []views.Post {
	out := make([]views.Post, len(posts))
	for i, p := range posts {
		out[i] = toViewPost(p)
	}
	return out
}

func toViewTags(tags []Tag) []views.Tag {
	out := make([]views.Tag, len(tags))
	for i, t := range tags {
		out[i] = views.Tag{Name: t.Name, Count: t.PostCount}
	}
	return out
}
