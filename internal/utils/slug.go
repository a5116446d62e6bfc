package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var slugStripRe = regexp.MustCompile(`[^\w-]+`)

// Slugify derives a URL-safe unique slug from a post title: lowercase,
// spaces become hyphens, anything outside [A-Za-z0-9_-] is stripped, and a
// millisecond timestamp is appended so no collision-retry loop is needed.
// Two submissions in the same millisecond would still collide; the unique
// index on posts.slug rejects the second one.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugStripRe.ReplaceAllString(slug, "")
	return fmt.Sprintf("%s-%d", slug, time.Now().UnixMilli())
}
