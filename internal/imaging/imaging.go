// Package imaging provides image decoding, normalization, and crop enhancement
// ahead of eye detection and feature extraction.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"gocv.io/x/gocv"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// ErrInvalidImage indicates input that cannot be decoded or has zero area.
var ErrInvalidImage = errors.New("invalid image")

// DefaultMaxDimension bounds the long edge of the working image so that
// detection and extraction cost stays bounded regardless of upload size.
const DefaultMaxDimension = 2048

// Decode decodes raw bytes into an image. JPEG, PNG, and TIFF are supported.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-area %s image", ErrInvalidImage, format)
	}
	return img, nil
}

// Normalize decodes raw bytes and returns an RGBA working image whose long
// edge does not exceed maxDim (DefaultMaxDimension when maxDim <= 0).
// Only shape and channel layout change; pixel colors are preserved apart
// from the resampling itself.
func Normalize(data []byte, maxDim int) (*image.RGBA, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	long := w
	if h > long {
		long = h
	}
	if long > maxDim {
		scale := float64(maxDim) / float64(long)
		w = int(float64(w)*scale + 0.5)
		h = int(float64(h)*scale + 0.5)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

// ToMat converts a Go image.Image to an OpenCV Mat in BGR channel order.
func ToMat(srcImg image.Image) (gocv.Mat, error) {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return gocv.Mat{}, fmt.Errorf("%w: zero-area image", ErrInvalidImage)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert from 16-bit to 8-bit and BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}
