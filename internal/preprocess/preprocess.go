// internal/preprocess/preprocess.go
package preprocess

import (
	"errors"
	"fmt"
)

// Channels is the only channel count accepted by the classifier (interleaved RGB).
const Channels = 3

// Default model input geometry used by both backends.
const (
	ModelHeight = 224
	ModelWidth  = 224
)

var (
	// ImageNetMean is the per-channel mean applied after scaling bytes into [0,1].
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	// ImageNetStd is the per-channel standard deviation.
	ImageNetStd = [3]float32{0.229, 0.224, 0.225}
)

// ErrInvalidInput is returned for images that cannot be fed to the model
// (wrong channel count, non-positive dimensions, short pixel buffer).
var ErrInvalidInput = errors.New("invalid input image")

// Image is a decoded image: row-major, interleaved channel bytes.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Validate checks the image invariants.
func (img Image) Validate() error {
	if img.Channels != Channels {
		return fmt.Errorf("%w: expected %d channels, got %d", ErrInvalidInput, Channels, img.Channels)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidInput, img.Width, img.Height)
	}
	if want := img.Width * img.Height * img.Channels; len(img.Pix) != want {
		return fmt.Errorf("%w: pixel buffer has %d bytes, expected %d", ErrInvalidInput, len(img.Pix), want)
	}
	return nil
}

// Tensor is a single-image planar (CHW) float tensor.
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// Shape returns the NCHW shape with batch size 1.
func (t Tensor) Shape() []int64 {
	return []int64{1, int64(t.Channels), int64(t.Height), int64(t.Width)}
}

// Preprocess resizes img to targetH x targetW with nearest-neighbor sampling and
// normalizes each channel as (v/255 - mean[c]) / std[c] into planar layout.
func Preprocess(img Image, targetH, targetW int, mean, std [3]float32) (Tensor, error) {
	if err := img.Validate(); err != nil {
		return Tensor{}, err
	}
	if targetH <= 0 || targetW <= 0 {
		return Tensor{}, fmt.Errorf("%w: invalid target size %dx%d", ErrInvalidInput, targetW, targetH)
	}
	for c := 0; c < Channels; c++ {
		if std[c] == 0 {
			return Tensor{}, fmt.Errorf("%w: zero std for channel %d", ErrInvalidInput, c)
		}
	}

	resized := Resize(img, targetH, targetW)

	plane := targetH * targetW
	data := make([]float32, Channels*plane)
	for c := 0; c < Channels; c++ {
		for y := 0; y < targetH; y++ {
			for x := 0; x < targetW; x++ {
				v := float32(resized.Pix[(y*targetW+x)*Channels+c]) / 255.0
				data[c*plane+y*targetW+x] = (v - mean[c]) / std[c]
			}
		}
	}

	return Tensor{
		Channels: Channels,
		Height:   targetH,
		Width:    targetW,
		Data:     data,
	}, nil
}

// ImageNet preprocesses img to the 224x224 ImageNet input used by both backends.
func ImageNet(img Image) (Tensor, error) {
	return Preprocess(img, ModelHeight, ModelWidth, ImageNetMean, ImageNetStd)
}
