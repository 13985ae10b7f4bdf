package photoblog

import (
	"encoding/xml"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the gallery, one page per tag in use and every post.
func (a *App) renderSitemap(c echo.Context, posts []Post) error {
	base := a.Config.Site.URL
	urls := []sitemapURL{{Loc: BuildURL(base)}}

	tags, err := a.Cache.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base) + "?tag=" + url.QueryEscape(t.Name)})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, postPath(p.ID)),
			LastMod: p.UpdatedAt.UTC().Format(dateLayout),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
