package dedup

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkbench/autovision/internal/engine/testdata"
)

// nearDuplicate copies src and repaints a small corner patch, producing an
// image that differs in pixels but not perceptually.
func nearDuplicate(src image.Image) image.Image {
	b := src.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, src, b.Min, draw.Src)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			out.Set(b.Min.X+x, b.Min.Y+y, color.RGBA{R: 255, A: 255})
		}
	}
	return out
}

func TestSelectCollapsesNearDuplicates(t *testing.T) {
	base := testdata.RampImage(300, 200, false)
	kept := Select([]image.Image{base, nearDuplicate(base)})

	assert.Len(t, kept, 1)
}

func TestSelectKeepsDistinctImages(t *testing.T) {
	kept := Select([]image.Image{
		testdata.RampImage(300, 200, false),
		testdata.RampImage(300, 200, true),
		testdata.StripeImage(300, 200, 40),
	})

	assert.Len(t, kept, 3)
}

func TestSelectRepresentativeIsOrderIndependent(t *testing.T) {
	base := testdata.RampImage(300, 200, false)
	altered := nearDuplicate(base)

	forward := Select([]image.Image{base, altered})
	reversed := Select([]image.Image{altered, base})

	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)
	assert.Same(t, forward[0], reversed[0],
		"the same image must survive regardless of input order")
}

func TestSelectMixedSetIsOrderIndependent(t *testing.T) {
	base := testdata.RampImage(300, 200, false)
	altered := nearDuplicate(base)
	distinct := testdata.StripeImage(300, 200, 40)

	forward := Select([]image.Image{base, altered, distinct})
	reversed := Select([]image.Image{distinct, altered, base})

	require.Len(t, forward, 2)
	assert.Equal(t, forward, reversed)
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, Select(nil))
	assert.Empty(t, Select([]image.Image{}))
}
