// Package compositor implements the accumulation rule of the long-exposure
// effect: each new frame is laid over the running composite with the
// non-premultiplied "over" operator.
package compositor

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/longexposure/pkg/pipeline"
)

// Blend composites addition over current and returns a new image.
// Neither input is modified.
func Blend(current, addition *image.NRGBA) (*image.NRGBA, error) {
	cb, ab := current.Bounds(), addition.Bounds()
	if cb.Dx() != ab.Dx() || cb.Dy() != ab.Dy() {
		return nil, fmt.Errorf("%w: composite is %dx%d, frame is %dx%d",
			pipeline.ErrDimensionMismatch, cb.Dx(), cb.Dy(), ab.Dx(), ab.Dy())
	}

	out := image.NewNRGBA(image.Rect(0, 0, cb.Dx(), cb.Dy()))
	for y := 0; y < cb.Dy(); y++ {
		cur := current.Pix[current.PixOffset(cb.Min.X, cb.Min.Y+y):]
		add := addition.Pix[addition.PixOffset(ab.Min.X, ab.Min.Y+y):]
		dst := out.Pix[out.PixOffset(0, y):]
		for x := 0; x < cb.Dx(); x++ {
			i := x * 4
			over(dst[i:i+4:i+4], cur[i:i+4:i+4], add[i:i+4:i+4])
		}
	}
	return out, nil
}

// over writes add-over-cur into dst. Alphas are carried in 1/255² units so
// that an opaque or fully transparent addition reproduces its input exactly.
func over(dst, cur, add []uint8) {
	aAdd := uint32(add[3])
	aCur := uint32(cur[3])

	// aOver = aAdd + aCur*(1-aAdd), scaled by 255*255
	wAdd := aAdd * 255
	wCur := aCur * (255 - aAdd)
	aOver := wAdd + wCur
	if aOver == 0 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}

	half := aOver / 2
	for c := 0; c < 3; c++ {
		dst[c] = uint8((uint32(add[c])*wAdd + uint32(cur[c])*wCur + half) / aOver)
	}
	dst[3] = uint8((aOver + 127) / 255)
}

// Normalize returns img as an NRGBA image anchored at the origin.
// Images that already satisfy that are returned as-is.
func Normalize(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}
