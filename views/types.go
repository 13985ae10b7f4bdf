package views

// SiteConfig holds site-wide settings populated from environment variables.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "Photos")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
}

// Post is a photo post as the templates see it.
type Post struct {
	ID          uint
	Title       string
	Description string
	Notes       string
	Date        string
	Tags        []string
	Images      []Image
	Link        string
}

// Image is one photo of a post. TakenAt is preformatted and may be empty.
type Image struct {
	URL     string
	Alt     string
	Width   int
	Height  int
	TakenAt string
}

// Tag is a filter entry on the gallery page.
type Tag struct {
	Name  string
	Count int64
}
