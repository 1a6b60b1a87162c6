// Package image derives bounded-size thumbnails from uploaded pet photos.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const (
	// ThumbnailMaxWidth and ThumbnailMaxHeight bound the derived preview.
	ThumbnailMaxWidth  = 100
	ThumbnailMaxHeight = 100

	jpegQuality = 85
)

// ErrDecode marks input that is not a decodable raster image.
var ErrDecode = errors.New("image cannot be decoded")

// Orientation extracts the EXIF orientation tag, defaulting to 1
// (upright) when the data carries no usable EXIF block.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// reorient maps each EXIF orientation to a source-pixel lookup. dst
// dimensions swap for the rotated orientations 5..8.
func reorient(img image.Image, orientation int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var (
		dstW, dstH int
		src        func(x, y int) (int, int)
	)
	switch orientation {
	case 2: // mirrored
		dstW, dstH, src = w, h, func(x, y int) (int, int) { return w - 1 - x, y }
	case 3: // rotated 180
		dstW, dstH, src = w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4: // flipped vertically
		dstW, dstH, src = w, h, func(x, y int) (int, int) { return x, h - 1 - y }
	case 5: // transposed
		dstW, dstH, src = h, w, func(x, y int) (int, int) { return y, x }
	case 6: // rotated 90 CW
		dstW, dstH, src = h, w, func(x, y int) (int, int) { return y, h - 1 - x }
	case 7: // transverse
		dstW, dstH, src = h, w, func(x, y int) (int, int) { return w - 1 - y, h - 1 - x }
	case 8: // rotated 90 CCW
		dstW, dstH, src = h, w, func(x, y int) (int, int) { return w - 1 - y, x }
	default:
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := src(x, y)
			out.Set(x, y, img.At(bounds.Min.X+sx, bounds.Min.Y+sy))
		}
	}
	return out
}

// Thumbnail produces a preview of the uploaded image fitting the maxW x
// maxH box, preserving aspect ratio and never upscaling. The result is
// re-encoded in the source format (png or jpeg) and returned together
// with its content type. The input is never mutated.
func Thumbnail(data []byte, maxW, maxH int) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if orientation := Orientation(data); orientation != 1 {
		img = reorient(img, orientation)
		log.Infof("Applied orientation correction: %d", orientation)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if sx := float64(maxW) / float64(w); sx < scale {
		scale = sx
	}
	if sy := float64(maxH) / float64(h); sy < scale {
		scale = sy
	}

	if scale < 1.0 {
		newW := int(float64(w) * scale)
		newH := int(float64(h) * scale)
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	switch format {
	case "png":
		contentType = "image/png"
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Infof("Thumbnail generated: %dx%d -> %dx%d (%d bytes)",
		w, h, img.Bounds().Dx(), img.Bounds().Dy(), buf.Len())
	return buf.Bytes(), contentType, nil
}
