package thetv

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

const (
	// ContainerSelector matches the gallery block of a news article
	ContainerSelector = "div.newsimage"

	// EntrySelector matches one gallery entry inside the container
	EntrySelector = "li"
)

// ExtractItems parses a news page and returns its gallery items in document
// order. A page without a gallery yields an empty slice, not an error.
func ExtractItems(r io.Reader, pageURL string, log logger.Logger) ([]models.Item, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	container := doc.Find(ContainerSelector).First()
	if container.Length() == 0 {
		log.DebugWithFields("Gallery container not found", map[string]interface{}{
			"selector": ContainerSelector,
			"page_url": pageURL,
		})
		return []models.Item{}, nil
	}

	items := []models.Item{}
	container.Find(EntrySelector).Each(func(i int, entry *goquery.Selection) {
		href, ok := entry.Find("a").First().Attr("href")
		if !ok || href == "" {
			log.DebugWithFields("Skipping entry without link", map[string]interface{}{
				"entry": i,
			})
			return
		}

		imageURL, ok := ImageURL(href, pageURL)
		if !ok {
			log.DebugWithFields("Skipping entry with unsupported link", map[string]interface{}{
				"entry": i,
				"href":  href,
			})
			return
		}

		// A missing img or alt attribute leaves the caption empty
		caption, _ := entry.Find("img").First().Attr("alt")

		log.DebugWithFields("Extracted item", map[string]interface{}{
			"entry":     i,
			"href":      href,
			"image_url": imageURL,
			"caption":   caption,
		})
		items = append(items, models.Item{ImageURL: imageURL, Caption: caption})
	})

	return items, nil
}
