package downloader

import (
	"net/url"
	"strings"
)

// DefaultFilename names images whose URL has no usable path segment
const DefaultFilename = "file"

// imageExtensions are the suffixes accepted as-is for an uploaded photo
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// FilenameFromURL derives an upload filename from the last segment of the
// URL path, percent-decoded. Names without an image extension get ".jpg".
func FilenameFromURL(imageURL string) string {
	name := DefaultFilename

	if u, err := url.Parse(imageURL); err == nil {
		escaped := u.EscapedPath()
		segment := escaped[strings.LastIndex(escaped, "/")+1:]
		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}
		segment = strings.NewReplacer("/", "_", "\\", "_").Replace(segment)
		if segment != "" {
			name = segment
		}
	}

	if !HasImageExtension(name) {
		name += ".jpg"
	}
	return name
}

// HasImageExtension reports whether name ends in a recognized image extension
func HasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
