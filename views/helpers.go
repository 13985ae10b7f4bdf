package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// TagHref returns the gallery URL filtered by tag, or the unfiltered gallery
// for an empty tag.
func TagHref(tag string) string {
	if tag == "" {
		return "/"
	}
	return "/?tag=" + url.QueryEscape(tag)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag-active"
	}
	return "tag"
}

// Cover returns the first image of p.
func (p Post) Cover() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}

// JoinTags formats a tag slice as a comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJSONLD(data)
}

// ImageGalleryJsonLD produces a Schema.org ImageGallery block for a post.
func ImageGalleryJsonLD(cfg SiteConfig, post Post) string {
	postURL := buildURL(cfg.URL, post.Link)
	images := make([]map[string]any, 0, len(post.Images))
	for _, img := range post.Images {
		obj := map[string]any{
			"@type":      "ImageObject",
			"contentUrl": string(templ.URL(img.URL)),
		}
		if img.Alt != "" {
			obj["caption"] = img.Alt
		}
		if img.Width > 0 && img.Height > 0 {
			obj["width"] = img.Width
			obj["height"] = img.Height
		}
		images = append(images, obj)
	}
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "ImageGallery",
		"name":          post.Title,
		"description":   post.Description,
		"datePublished": post.Date,
		"url":           postURL,
		"image":         images,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = JoinTags(post.Tags)
	}
	return marshalJSONLD(data)
}

// marshalJSONLD encodes v for a <script> block. json.Marshal escapes <, >
// and & so the payload cannot close the tag.
func marshalJSONLD(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
