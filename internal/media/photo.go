// Package media stores uploaded client photos under the media root.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	MaxPhotoSide  = 512
	MaxUploadSize = 10 << 20
	photoQuality  = 80
)

var ErrInvalidImage = errors.New("media: unsupported or corrupt image")

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// SaveClientPhoto decodes a JPEG, PNG or WebP upload, scales it to fit
// MaxPhotoSide and writes it as WebP. It returns the path relative to the
// media root, using forward slashes.
func (s *Store) SaveClientPhoto(clientID uint, r io.Reader) (string, error) {
	img, _, err := image.Decode(io.LimitReader(r, MaxUploadSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	rel := fmt.Sprintf("clients/%d/%s.webp", clientID, uuid.NewString())
	dest := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("media: create dir: %w", err)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("media: create file: %w", err)
	}
	if err := webp.Encode(f, Fit(img, MaxPhotoSide), &webp.Options{Quality: photoQuality}); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("media: encode webp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("media: write file: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously stored file. Paths outside the media root
// are ignored.
func (s *Store) Remove(rel string) error {
	if rel == "" || strings.Contains(rel, `\`) || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Fit scales img down so neither side exceeds side. Smaller images are
// returned unchanged.
func Fit(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}

	if w >= h {
		h = h * side / w
		w = side
	} else {
		w = w * side / h
		h = side
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
