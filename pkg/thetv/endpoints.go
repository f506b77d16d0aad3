package thetv

import (
	"net/url"
	"strings"
)

const (
	// BaseURL is the origin of the news site
	BaseURL = "https://thetv.jp"

	// DefaultPageURL is the news article whose gallery is relayed
	DefaultPageURL = BaseURL + "/news/detail/1310405/"

	// DetailSegment prefixes links to a gallery entry's detail page
	DetailSegment = "/news/detail/"

	// ImageSegment prefixes the full-size image of the same entry
	ImageSegment = "/i/nw/"

	// ImageExtension is appended to every derived image path
	ImageExtension = ".jpg"
)

// ImageURL turns a gallery entry's detail link into the absolute URL of its
// full-size image, e.g. "/news/detail/1310405/1/" becomes
// "https://thetv.jp/i/nw/1310405/1.jpg" for a page on thetv.jp.
//
// Any query or fragment on href is dropped. It returns false when href does
// not point at a detail page.
func ImageURL(href, pageURL string) (string, bool) {
	h := strings.TrimSpace(href)
	idx := strings.Index(h, DetailSegment)
	if idx < 0 {
		return "", false
	}

	rest := h[idx+len(DetailSegment):]
	if cut := strings.IndexAny(rest, "?#"); cut >= 0 {
		rest = rest[:cut]
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return "", false
	}

	return resolve(h[:idx]+ImageSegment+rest+ImageExtension, pageURL), true
}

// resolve makes ref absolute against pageURL. Refs that do not parse are
// passed through so that the download of that single item fails.
func resolve(ref, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		base, _ = url.Parse(BaseURL)
	}

	u, err := url.Parse(ref)
	if err != nil {
		switch {
		case strings.HasPrefix(ref, "//"):
			return base.Scheme + ":" + ref
		case strings.HasPrefix(ref, "/"):
			return base.Scheme + "://" + base.Host + ref
		default:
			return ref
		}
	}

	return base.ResolveReference(u).String()
}
