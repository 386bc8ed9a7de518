package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/longexposure/pkg/pipeline"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gradient creates an opaque image where every pixel differs.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 37), G: uint8(y * 53), B: uint8(x*y + 11), A: 255})
		}
	}
	return img
}

func TestBlend_OpaqueSelfIsIdentity(t *testing.T) {
	a := gradient(7, 5)

	out, err := Blend(a, a)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, out.Pix)
}

func TestBlend_TransparentAdditionIsNoop(t *testing.T) {
	tests := []struct {
		name    string
		current *image.NRGBA
	}{
		{"opaque", gradient(4, 3)},
		{"translucent", solid(4, 3, color.NRGBA{R: 10, G: 200, B: 30, A: 90})},
		{"transparent black", solid(4, 3, color.NRGBA{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clear := image.NewNRGBA(tt.current.Bounds())
			out, err := Blend(tt.current, clear)
			require.NoError(t, err)
			assert.Equal(t, tt.current.Pix, out.Pix)
		})
	}
}

func TestBlend_HalfBlueOverRed(t *testing.T) {
	red := solid(2, 2, color.NRGBA{R: 255, A: 255})
	blue := solid(2, 2, color.NRGBA{B: 255, A: 128})

	out, err := Blend(red, blue)
	require.NoError(t, err)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, color.NRGBA{R: 127, G: 0, B: 128, A: 255}, out.NRGBAAt(x, y))
		}
	}
}

func TestBlend_TranslucentOverTranslucent(t *testing.T) {
	cur := solid(1, 1, color.NRGBA{R: 200, A: 100})
	add := solid(1, 1, color.NRGBA{G: 200, A: 100})

	out, err := Blend(cur, add)
	require.NoError(t, err)

	// aOver = 100/255 + 100/255*(155/255) ≈ 0.6306 → 161
	got := out.NRGBAAt(0, 0)
	assert.Equal(t, uint8(161), got.A)
	assert.InDelta(t, 200*100*155.0/(100*255+100*155), float64(got.R), 1)
	assert.InDelta(t, 200*100*255.0/(100*255+100*155), float64(got.G), 1)
	assert.Equal(t, uint8(0), got.B)
}

func TestBlend_DoesNotMutateInputs(t *testing.T) {
	cur := gradient(3, 3)
	add := solid(3, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 64})
	curPix := append([]uint8(nil), cur.Pix...)
	addPix := append([]uint8(nil), add.Pix...)

	out, err := Blend(cur, add)
	require.NoError(t, err)

	assert.Equal(t, curPix, cur.Pix)
	assert.Equal(t, addPix, add.Pix)
	assert.NotSame(t, &cur.Pix[0], &out.Pix[0])
}

func TestBlend_DimensionMismatch(t *testing.T) {
	_, err := Blend(solid(2, 2, color.NRGBA{}), solid(3, 2, color.NRGBA{}))
	assert.ErrorIs(t, err, pipeline.ErrDimensionMismatch)
}

func TestBlend_OffsetBounds(t *testing.T) {
	base := gradient(6, 6)
	sub := base.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)
	add := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	out, err := Blend(sub, add)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, base.NRGBAAt(3, 3), out.NRGBAAt(1, 1))
}

func TestNormalize(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.SetRGBA(0, 0, color.RGBA{R: 64, A: 128}) // premultiplied
	rgba.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})

	n := Normalize(rgba)
	assert.Equal(t, color.NRGBA{R: 127, A: 128}, n.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, n.NRGBAAt(1, 0))

	same := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, same, Normalize(same))
}
