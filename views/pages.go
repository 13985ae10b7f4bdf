package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the gallery: a tag filter bar and one card per post.
func Home(site SiteConfig, posts []Post, tags []Tag, activeTag string) templ.Component {
	meta := PageMeta{Title: site.Name, URL: buildURL(site.URL), OGType: "website"}
	if activeTag != "" {
		meta.Title = "#" + activeTag
		meta.URL = buildURL(site.URL) + TagHref(activeTag)[1:]
	}
	if len(posts) > 0 {
		if img, ok := posts[0].Cover(); ok {
			meta.Image = img.URL
		}
	}
	return layout(site, meta, WebsiteJsonLD(site), func(p *page) {
		if len(tags) > 0 {
			p.raw("<nav class=\"tags\" aria-label=\"Tags\">")
			tagLink(p, "All", "", activeTag == "", 0)
			for _, t := range tags {
				tagLink(p, t.Name, t.Name, sameTag(t.Name, activeTag), t.Count)
			}
			p.raw("</nav>")
		}
		if len(posts) == 0 {
			p.raw("<p class=\"empty\">No posts yet.</p>")
			return
		}
		p.raw("<section class=\"gallery\">")
		for _, post := range posts {
			card(p, post)
		}
		p.raw("</section>")
	})
}

// PostPage renders a single post with every image at full width.
func PostPage(site SiteConfig, post Post) templ.Component {
	meta := PageMeta{
		Title:       post.Title,
		Description: post.Description,
		URL:         buildURL(site.URL, post.Link),
		OGType:      "article",
	}
	if img, ok := post.Cover(); ok {
		meta.Image = img.URL
	}
	return layout(site, meta, ImageGalleryJsonLD(site, post), func(p *page) {
		p.raw("<article class=\"post\"><header><h1>")
		p.text(post.Title)
		p.raw("</h1><time")
		p.attr("datetime", post.Date)
		p.raw(">")
		p.text(post.Date)
		p.raw("</time></header><p class=\"description\">")
		p.text(post.Description)
		p.raw("</p>")
		for _, img := range post.Images {
			p.raw("<figure>")
			imgTag(p, img, "")
			if img.Alt != "" || img.TakenAt != "" {
				p.raw("<figcaption>")
				p.text(img.Alt)
				if img.TakenAt != "" {
					p.raw(" <span class=\"taken\">")
					p.text(img.TakenAt)
					p.raw("</span>")
				}
				p.raw("</figcaption>")
			}
			p.raw("</figure>")
		}
		if post.Notes != "" {
			p.raw("<p class=\"notes\">")
			p.text(post.Notes)
			p.raw("</p>")
		}
		if len(post.Tags) > 0 {
			p.raw("<nav class=\"tags\" aria-label=\"Tags\">")
			for _, t := range post.Tags {
				tagLink(p, t, t, false, 0)
			}
			p.raw("</nav>")
		}
		p.raw("<p><a href=\"/\">&larr; All photos</a></p></article>")
	})
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return layout(site, PageMeta{Title: "Not found"}, "", func(p *page) {
		p.raw("<section class=\"error\"><h1>Not found</h1><p>That page does not exist.</p><p><a href=\"/\">Back to the gallery</a></p></section>")
	})
}

// ServerError renders the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return layout(site, PageMeta{Title: "Error"}, "", func(p *page) {
		p.raw("<section class=\"error\"><h1>Something went wrong</h1><p>Please try again later.</p></section>")
	})
}

func card(p *page, post Post) {
	p.raw("<article class=\"card\"><a")
	p.url("href", post.Link)
	p.raw(">")
	if img, ok := post.Cover(); ok {
		imgTag(p, img, "lazy")
	}
	p.raw("<h2>")
	p.text(post.Title)
	p.raw("</h2></a><time")
	p.attr("datetime", post.Date)
	p.raw(">")
	p.text(post.Date)
	p.raw("</time>")
	if n := len(post.Images); n > 1 {
		p.raw("<span class=\"count\">")
		p.text(strconv.Itoa(n) + " photos")
		p.raw("</span>")
	}
	p.raw("</article>")
}

func imgTag(p *page, img Image, loading string) {
	p.raw("<img")
	p.url("src", img.URL)
	p.attr("alt", img.Alt)
	p.intAttr("width", img.Width)
	p.intAttr("height", img.Height)
	if loading != "" {
		p.attr("loading", loading)
	}
	p.raw(">")
}

func tagLink(p *page, label, tag string, active bool, count int64) {
	p.raw("<a")
	p.attr("class", TagClass(active))
	p.url("href", TagHref(tag))
	p.raw(">")
	p.text(label)
	if count > 0 {
		p.raw(" <span class=\"count\">")
		p.text(strconv.FormatInt(count, 10))
		p.raw("</span>")
	}
	p.raw("</a>")
}

func sameTag(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
