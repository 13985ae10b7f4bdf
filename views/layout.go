package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// page writes HTML while remembering the first write error, so templates
// read top to bottom without an error check per line.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) attr(name, value string) {
	p.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

// url writes an attribute holding a URL. Unsafe schemes are replaced by
// templ's sanitized placeholder.
func (p *page) url(name, value string) {
	p.attr(name, string(templ.URL(value)))
}

func (p *page) intAttr(name string, v int) {
	if v > 0 {
		p.raw(" " + name + "=\"" + strconv.Itoa(v) + "\"")
	}
}

// layout wraps body in the shared document shell.
func layout(site SiteConfig, meta PageMeta, jsonLD string, body func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		p.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		p.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		p.raw("<title>")
		p.text(title)
		p.raw("</title>")
		if desc != "" {
			p.raw("<meta name=\"description\"")
			p.attr("content", desc)
			p.raw(">")
		}
		if meta.URL != "" {
			p.raw("<link rel=\"canonical\"")
			p.url("href", meta.URL)
			p.raw("><meta property=\"og:url\"")
			p.url("content", meta.URL)
			p.raw(">")
		}
		p.raw("<meta property=\"og:title\"")
		p.attr("content", title)
		p.raw("><meta property=\"og:type\"")
		p.attr("content", ogType)
		p.raw(">")
		if meta.Image != "" {
			p.raw("<meta property=\"og:image\"")
			p.url("content", meta.Image)
			p.raw(">")
		}
		p.raw("<link rel=\"alternate\" type=\"application/rss+xml\" href=\"/feed.xml\"")
		p.attr("title", site.Name)
		p.raw("><link rel=\"stylesheet\" href=\"/public/style.css\">")
		if jsonLD != "" {
			p.raw("<script type=\"application/ld+json\">")
			p.raw(jsonLD)
			p.raw("</script>")
		}
		p.raw("</head><body><header class=\"site-header\"><a class=\"site-name\" href=\"/\">")
		p.text(site.Name)
		p.raw("</a>")
		if site.Description != "" {
			p.raw("<p class=\"site-description\">")
			p.text(site.Description)
			p.raw("</p>")
		}
		p.raw("</header><main>")
		body(p)
		p.raw("</main><footer class=\"site-footer\">")
		if site.Author != "" {
			p.raw("<span>&copy; ")
			p.text(site.Author)
			p.raw("</span> ")
		}
		p.raw("<a href=\"/feed.xml\">RSS</a></footer></body></html>")
		return p.err
	})
}
