// Package storage keeps catalog images and their thumbnails.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MaxImageSize   = 5 << 20
	ThumbnailWidth = 400
)

var (
	ErrNotImage = errors.New("el archivo no es una imagen válida")
	ErrTooLarge = errors.New("la imagen supera los 5MB")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// Processed is an uploaded image checked and thumbnailed.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
	Thumbnail   []byte
}

// ProcessImage sniffs the upload, rejects anything that is not a decodable
// image and renders a JPEG thumbnail at most ThumbnailWidth wide.
func ProcessImage(data []byte) (*Processed, error) {
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok || !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}

	var thumb bytes.Buffer
	if err := imaging.Encode(&thumb, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return &Processed{
		Data:        data,
		ContentType: contentType,
		Ext:         ext,
		Thumbnail:   thumb.Bytes(),
	}, nil
}
