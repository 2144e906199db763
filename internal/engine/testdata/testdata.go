// Package testdata generates synthetic image fixtures for engine tests.
// No real photographs are checked into the repository.
package testdata

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// SolidImage returns a w×h image filled with c, with a contrasting band so
// perceptual hashes are not degenerate.
func SolidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	band := color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y > h/3 && y < h/2 && x > w/4 {
				img.Set(x, y, band)
			} else {
				img.Set(x, y, c)
			}
		}
	}
	return img
}

// GradientImage returns a w×h image with a horizontal gradient seeded by
// seed, so distinct seeds produce perceptually distinct images.
func GradientImage(w, h, seed int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*255/w + seed*37) % 256)
			img.Set(x, y, color.RGBA{R: v, G: uint8((y * 255) / h), B: uint8(seed * 11 % 256), A: 255})
		}
	}
	return img
}

// RampImage returns a w×h brightness ramp. A forward ramp and a reversed
// ramp are perceptually opposite, which keeps them apart under dHash.
func RampImage(w, h int, reverse bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			if reverse {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// StripeImage returns a w×h image of vertical stripes with the given period.
func StripeImage(w, h, period int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/period)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

// WriteJPEG encodes img to dir/name and returns the path.
func WriteJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WritePNG encodes img to dir/name and returns the path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WriteCorrupt writes a file that is not a decodable image.
func WriteCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
