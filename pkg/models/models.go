package models

// Item is one news entry extracted from the source page
type Item struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// DownloadedImage holds the raw bytes of an item's image until it is sent
type DownloadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// Size returns the image size in bytes
func (d *DownloadedImage) Size() int {
	return len(d.Data)
}
