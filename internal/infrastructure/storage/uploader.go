package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/core/domain"
	"github.com/recipehub/recipe-api/internal/core/ports"
	"github.com/recipehub/recipe-api/internal/pkg/metrics"
)

const (
	DefaultMaxImageBytes = 5 << 20
	defaultUploadTimeout = 30 * time.Second
	keyPrefix            = "recipes/"
	maxNameLength        = 64
)

// allowedImageTypes are the sniffed content types accepted for recipe images.
// SVG is excluded because it can carry script.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Options configures an Uploader.
type Options struct {
	Bucket string
	// PublicBaseURL is the origin objects are served from; URLs take the
	// form <PublicBaseURL>/<Bucket>/<key>.
	PublicBaseURL string
	MaxBytes      int64
	Timeout       time.Duration
}

// Uploader validates, compresses and stores recipe images.
type Uploader struct {
	store   ObjectStore
	bucket  string
	baseURL string
	max     int64
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewUploader(store ObjectStore, opts Options, logger zerolog.Logger) *Uploader {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultUploadTimeout
	}
	return &Uploader{
		store:   store,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		max:     opts.MaxBytes,
		timeout: opts.Timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Upload stores file gzip-encoded under a unique key and returns its public
// URL. A nil or empty file yields "" and no object.
func (u *Uploader) Upload(ctx context.Context, file *ports.ImageFile) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", nil
	}

	if int64(len(file.Data)) > u.max {
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return "", &domain.ValidationError{Field: "image", Message: fmt.Sprintf("must not exceed %d bytes", u.max)}
	}

	mt := mimetype.Detect(file.Data)
	if !allowedImageTypes[mt.String()] {
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return "", &domain.ValidationError{Field: "image", Message: "must be a PNG, JPEG, GIF or WebP file"}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(file.Data); err != nil {
		return "", &domain.UploadError{Cause: err}
	}
	if err := zw.Close(); err != nil {
		return "", &domain.UploadError{Cause: err}
	}

	key := u.objectKey(file.Filename)

	putCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	err := u.store.Put(putCtx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), PutOptions{
		ContentType:     mt.String(),
		ContentEncoding: "gzip",
		CacheControl:    "public, max-age=31536000",
	})
	metrics.ImageUploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
		u.logger.Error().Err(err).Str("key", key).Msg("image upload failed")
		return "", &domain.UploadError{Cause: err}
	}

	metrics.ImageUploadsTotal.WithLabelValues("ok").Inc()
	u.logger.Debug().Str("key", key).Int("bytes", len(file.Data)).Msg("image uploaded")
	return u.PublicURL(key), nil
}

// Remove deletes the object behind url. URLs that do not point into the
// configured bucket are ignored.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	key, ok := u.keyFromURL(url)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if err := u.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}

func (u *Uploader) PublicURL(key string) string {
	return u.baseURL + "/" + u.bucket + "/" + key
}

func (u *Uploader) keyFromURL(url string) (string, bool) {
	prefix := u.baseURL + "/" + u.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func (u *Uploader) objectKey(filename string) string {
	return fmt.Sprintf("%s%d_%s_%s", keyPrefix, u.now().UnixMilli(), uuid.NewString()[:8], sanitizeName(filename))
}

// sanitizeName keeps the base name of a client supplied filename, replacing
// anything outside [A-Za-z0-9._-] with '_'.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "/" || name == "." {
		return "image"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLength {
		out = out[len(out)-maxNameLength:]
	}
	if out == "" {
		return "image"
	}
	return out
}
