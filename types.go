package photoblog

import (
	"strings"
	"time"
)

// Post is a dated photo entry. It owns its images and shares tags with
// other posts through post_tags.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"not null" json:"description"`
	Notes       *string   `json:"notes"`
	Date        string    `gorm:"type:varchar(10);not null;index" json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Images      []Image   `json:"images"`
	Tags        []Tag     `gorm:"many2many:post_tags" json:"tags"`
}

// Image is a stored photo belonging to exactly one post.
type Image struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	PostID         uint       `gorm:"not null;index" json:"post_id"`
	URL            string     `gorm:"not null" json:"url"`
	Alt            string     `json:"alt"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	TimestampTaken *time.Time `json:"timestamp_taken"`
}

// Tag is a unique label. PostCount is computed when listing and never stored.
type Tag struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null;uniqueIndex" json:"name"`
	PostCount int64  `gorm:"->;-:migration" json:"post_count"`
}

// PostTag is the join row between posts and tags.
type PostTag struct {
	PostID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey;index"`
}

// PostInput is the body of post create and update requests.
type PostInput struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Notes       *string      `json:"notes"`
	Date        string       `json:"date" validate:"required"`
	Tags        []string     `json:"tags"`
	Images      []ImageInput `json:"images" validate:"required,min=1,dive"`
}

// ImageInput references an uploaded image. ID is set for images that
// already belong to the post being updated.
type ImageInput struct {
	ID             *uint      `json:"id"`
	URL            string     `json:"url" validate:"required"`
	Alt            string     `json:"alt"`
	Width          int        `json:"width" validate:"gte=0"`
	Height         int        `json:"height" validate:"gte=0"`
	TimestampTaken *time.Time `json:"timestamp_taken"`
}

// TagInput is the body of tag create and rename requests.
type TagInput struct {
	Name string `json:"name" validate:"required,max=64"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if n == "" {
			in.Notes = nil
		} else {
			in.Notes = &n
		}
	}
	in.Tags = uniqueTags(in.Tags)
	for i := range in.Images {
		in.Images[i].URL = strings.TrimSpace(in.Images[i].URL)
	}
}

// validDate reports whether s is a calendar date in YYYY-MM-DD form.
func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

const dateLayout = "2006-01-02"

// uniqueTags trims names, drops empties and keeps the first spelling of
// names that differ only in case.
func uniqueTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range FilterEmpty(names) {
		key := normalizeTag(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// TagNames returns the names of p's tags.
func (p Post) TagNames() []string {
	names := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		names[i] = t.Name
	}
	return names
}

// Cover returns the first image of p, if any.
func (p Post) Cover() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}
