package ports

import "context"

// MediaUploader stores images and returns their public URL. Upload returns
// "" without error when file is nil or empty.
type MediaUploader interface {
	Upload(ctx context.Context, file *ImageFile) (string, error)
	Remove(ctx context.Context, url string) error
}

// ImageCleaner removes objects asynchronously. Enqueue never blocks.
type ImageCleaner interface {
	Enqueue(url string)
}
