package view

import (
	"fmt"
	"html/template"
	"strings"

	"classroom/internal/model"
)

// SkeletonCount is the number of placeholder cards shown while loading.
const SkeletonCount = 3

// Placeholder sizes for the card thumbnail and the detail hero image.
const (
	CardImageSize   = "800/450"
	DetailImageSize = "1200/675"
)

// PlaceholderImage derives a stable image URL from a course id. The same id
// always yields the same URL.
func PlaceholderImage(courseID, size string) string {
	seed := courseID
	if len(seed) > 8 {
		seed = seed[:8]
	}
	if seed == "" {
		seed = "default"
	}
	return "https://picsum.photos/seed/" + seed + "/" + size
}

// ImageFor returns the stored image or the placeholder for the course. The
// result is trusted by the templates, so only web URLs and inline images pass;
// anything else falls back to the placeholder.
func ImageFor(c model.Course, size string) template.URL {
	if isImageSource(c.ImageURL) {
		return template.URL(c.ImageURL)
	}
	return template.URL(PlaceholderImage(c.ID, size))
}

func isImageSource(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	switch {
	case lower == "":
		return false
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "data:image/"):
		return true
	}
	// Relative references carry no scheme.
	colon := strings.IndexByte(lower, ':')
	return colon < 0 || strings.IndexAny(lower[:colon], "/?#") >= 0
}

// Card holds the derived display fields of one grid card.
type Card struct {
	ID          string
	Title       string
	Description string
	Image       template.URL
	Tag         string
	Progress    int
}

func NewCard(c model.Course) Card {
	return Card{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Image:       ImageFor(c, CardImageSize),
		Tag:         c.Tag,
		Progress:    model.ClampProgress(c.Progress),
	}
}

// CountText is the line under the grid heading.
func CountText(n int) string {
	if n == 1 {
		return "1 course available"
	}
	return fmt.Sprintf("%d courses available", n)
}

// EmptyText is the empty grid message, which differs for admins.
func EmptyText(isAdmin bool) string {
	if isAdmin {
		return "Create your first course to get started"
	}
	return "No courses available at the moment"
}

// IconKind groups attachments for their list icon.
type IconKind string

const (
	IconVideo    IconKind = "video"
	IconImage    IconKind = "image"
	IconDocument IconKind = "document"
	IconFile     IconKind = "file"
)

func FileIcon(mimeType string) IconKind {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return IconVideo
	case strings.HasPrefix(mimeType, "image/"):
		return IconImage
	case strings.Contains(mimeType, "pdf"), strings.Contains(mimeType, "document"):
		return IconDocument
	}
	return IconFile
}

// FormatSize renders a byte count the way the attachment list shows it.
func FormatSize(bytes int64) string {
	switch {
	case bytes <= 0:
		return "Unknown size"
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
