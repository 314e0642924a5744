// Package filemgr validates and stores uploaded recipe images.
package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	URLPrefix  = "/uploads/"
	thumbDir   = "thumbs"
	thumbWidth = 480
	maxPixels  = 4000
)

var (
	AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	AllowedMIMEs      = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrInvalidImage     = errors.New("file is not a readable image")
)

// IsValidationError reports whether err was caused by the upload itself
// rather than by the server.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidExtension) || errors.Is(err, ErrInvalidMIME) ||
		errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrInvalidImage)
}

type Uploader struct {
	Dir     string
	MaxSize int64
}

func NewUploader(dir string, maxSize int64) *Uploader {
	return &Uploader{Dir: dir, MaxSize: maxSize}
}

// Saved holds public paths ("/uploads/...") of a stored image.
type Saved struct {
	Image     string
	Thumbnail string
}

// SaveImage validates the upload, writes it under Dir with a random name and
// writes a JPEG thumbnail next to it.
func (u *Uploader) SaveImage(header *multipart.FileHeader) (Saved, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(AllowedExtensions, ext) {
		return Saved{}, fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	if u.MaxSize > 0 && header.Size > u.MaxSize {
		return Saved{}, ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return Saved{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	limit := u.MaxSize
	if limit <= 0 {
		limit = 10 << 20
	}
	buf, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return Saved{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > limit {
		return Saved{}, ErrFileTooLarge
	}

	mimeType := http.DetectContentType(buf)
	if mimeType == "application/octet-stream" {
		if formMime := header.Header.Get("Content-Type"); formMime != "" {
			mimeType = formMime
		}
	}
	if !slices.Contains(AllowedMIMEs, mimeType) {
		return Saved{}, fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType)
	}

	// bounds come from the header; pixels are decoded only once they pass
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return Saved{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > maxPixels || cfg.Height > maxPixels {
		return Saved{}, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrInvalidImage, cfg.Width, cfg.Height, maxPixels, maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return Saved{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if err := os.MkdirAll(filepath.Join(u.Dir, thumbDir), 0o755); err != nil {
		return Saved{}, fmt.Errorf("mkdir %s: %w", u.Dir, err)
	}

	base := uuid.New().String()
	name := base + ext
	if err := os.WriteFile(filepath.Join(u.Dir, name), buf, 0o644); err != nil {
		return Saved{}, fmt.Errorf("write image: %w", err)
	}

	thumbName := base + ".jpg"
	if err := writeThumbnail(img, filepath.Join(u.Dir, thumbDir, thumbName)); err != nil {
		_ = os.Remove(filepath.Join(u.Dir, name))
		return Saved{}, err
	}

	return Saved{
		Image:     URLPrefix + name,
		Thumbnail: URLPrefix + path.Join(thumbDir, thumbName),
	}, nil
}

func writeThumbnail(img image.Image, dest string) error {
	thumb := img
	if img.Bounds().Dx() > thumbWidth {
		thumb = imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()
	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

// Remove deletes a file previously returned by SaveImage. Paths outside the
// upload directory are ignored.
func (u *Uploader) Remove(publicPath string) error {
	if !strings.HasPrefix(publicPath, URLPrefix) {
		return nil
	}
	rel := path.Clean(strings.TrimPrefix(publicPath, URLPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(u.Dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", publicPath, err)
	}
	return nil
}
