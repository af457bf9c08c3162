package crawler

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Extensions for common image content types. mime.ExtensionsByType covers
// the rest; .bin is the fallback when no mapping exists.
var imageTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

const filenameCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxBareFilenameLen is the length past which an extension-less URL segment
// gets a random suffix to avoid collisions between truncation-prone names
const maxBareFilenameLen = 20

// randomSuffix returns n random alphanumeric characters
func randomSuffix(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(filenameCharset))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		b.WriteByte(filenameCharset[idx.Int64()])
	}
	return b.String()
}

// filenameFromURL returns the final segment of the URL path
func filenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(parsed.Path, "/")
	return segments[len(segments)-1]
}

func hasFileExtension(name string) bool {
	return strings.LastIndex(name, ".") != -1
}

// extensionForType guesses a file extension from a content type
func extensionForType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	if ext, ok := imageTypeExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// GuessFilename derives a filesystem-safe name for a fetched image. The
// URL's basename is reused when it already carries an extension; otherwise
// long names get a random suffix, and an extension guessed from the content
// type (.bin when no mapping exists) is appended.
func GuessFilename(rawURL, contentType string) string {
	name := filenameFromURL(rawURL)
	if hasFileExtension(name) {
		return name
	}

	if len(name) > maxBareFilenameLen {
		name += "_" + randomSuffix(10)
	}

	ext := extensionForType(contentType)
	if ext == "" {
		ext = ".bin"
	}
	return name + ext
}

// ImageResolver downloads candidate images into a process-local temporary
// directory. The caller owns deleting the file once consumed.
type ImageResolver struct {
	fetcher *Fetcher
	tempDir string
	logger  *slog.Logger
}

// NewImageResolver creates an image resolver writing into tempDir
func NewImageResolver(fetcher *Fetcher, tempDir string, logger *slog.Logger) *ImageResolver {
	return &ImageResolver{
		fetcher: fetcher,
		tempDir: tempDir,
		logger:  logger,
	}
}

// FetchImage downloads the image and writes it under the temp directory
// (created on demand) with a derived filename, returning the file path.
//
// Errors are deliberately not swallowed here: a missing image must abort
// that branch of the pipeline, not continue with a half-formed record. A
// non-2xx response surfaces as *HTTPError for the caller to classify.
func (r *ImageResolver) FetchImage(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.fetcher.Fetch(ctx, rawURL, nil)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", err
	}

	filename := GuessFilename(rawURL, resp.ContentType())
	path := filepath.Join(r.tempDir, filename)

	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		return "", err
	}

	r.logger.Debug("Image fetched",
		"url", rawURL,
		"path", path,
		"bytes", len(resp.Body),
	)
	return path, nil
}
