// Package optimizer produces the display rendition of uploaded photos and
// runs the background queue that does so after each upload.
package optimizer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DisplayContentType is the content type of every rendition.
const DisplayContentType = "image/jpeg"

// Rendition is an encoded display-size image.
type Rendition struct {
	Data   []byte
	Width  int
	Height int
}

// Optimizer downsizes images to fit MaxWidth, keeping the aspect ratio. It
// never enlarges. Output is JPEG because the ecosystem has no pure-Go WebP
// encoder; WebP input is still accepted.
type Optimizer struct {
	MaxWidth int
	Quality  int
}

func New(maxWidth, quality int) *Optimizer {
	return &Optimizer{MaxWidth: maxWidth, Quality: quality}
}

// Render decodes r (JPEG, PNG, GIF, WebP), applies EXIF orientation, resizes
// and re-encodes.
func (o *Optimizer) Render(r io.Reader) (*Rendition, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if o.MaxWidth > 0 && img.Bounds().Dx() > o.MaxWidth {
		img = imaging.Resize(img, o.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.Quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	b := img.Bounds()
	return &Rendition{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
