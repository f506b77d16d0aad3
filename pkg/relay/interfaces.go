package relay

import (
	"context"

	"newsrelay/pkg/models"
	"newsrelay/pkg/telegram"
)

// PageSource fetches the news page and extracts its gallery items
type PageSource interface {
	FetchItems(ctx context.Context) ([]models.Item, error)
}

// ImageDownloader fetches the bytes of one image
type ImageDownloader interface {
	Download(ctx context.Context, imageURL string) (*models.DownloadedImage, error)
}

// PhotoSender posts one image to the chat
type PhotoSender interface {
	SendPhoto(ctx context.Context, image *models.DownloadedImage, caption string) (*telegram.Response, error)
}
