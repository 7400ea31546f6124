// Package imageio decodes image files into interleaved RGB24 buffers.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

// ErrDecode is returned when a file cannot be opened or decoded as an image.
var ErrDecode = errors.New("failed to decode image")

// Decode reads the image at path (JPEG, PNG, GIF, TIFF or BMP) and converts
// it to 3-channel RGB. Pixels are taken in stored order; EXIF orientation
// tags are ignored.
func Decode(path string) (preprocess.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return preprocess.Image{}, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	return FromImage(img), nil
}

// DecodeReader is Decode for an in-memory or streamed image.
func DecodeReader(r io.Reader) (preprocess.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return preprocess.Image{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image.Image to RGB24. Palette, gray and 16-bit
// images are expanded; alpha is dropped without compositing.
func FromImage(img image.Image) preprocess.Image {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := make([]byte, w*h*preprocess.Channels)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			dst := (y*w + x) * preprocess.Channels
			pix[dst] = row[x*4]
			pix[dst+1] = row[x*4+1]
			pix[dst+2] = row[x*4+2]
		}
	}
	return preprocess.Image{
		Width:    w,
		Height:   h,
		Channels: preprocess.Channels,
		Pix:      pix,
	}
}
