package embedder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"

	"github.com/bep/imagemeta"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// inputSize is the square input resolution of the visual encoder.
const inputSize = 224

// CLIP normalization constants (RGB channel mean and std).
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// DecodeFile reads and decodes an image file, applying the EXIF orientation
// tag if present. Orientation extraction is best-effort; a missing or
// unreadable tag leaves the image as decoded.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("embedder: read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("embedder: decode %s: %w", path, err)
	}

	return applyOrientation(img, exifOrientation(data)), nil
}

// exifOrientation extracts the EXIF Orientation value (1-8), or 0 when
// absent or unreadable.
func exifOrientation(data []byte) int {
	orientation := 0
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Orientation"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			switch v := ti.Value.(type) {
			case uint16:
				orientation = int(v)
			case uint32:
				orientation = int(v)
			case int:
				orientation = v
			case string:
				if n, err := strconv.Atoi(v); err == nil {
					orientation = n
				}
			}
			return nil
		},
	})
	if err != nil {
		return 0
	}
	return orientation
}

// applyOrientation transposes img per the EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return flipH(img)
	case 3:
		return rotate180(img)
	case 4:
		return flipH(rotate180(img))
	case 5:
		return flipH(rotate90(img))
	case 6:
		return rotate90(img)
	case 7:
		return flipH(rotate270(img))
	case 8:
		return rotate270(img)
	default:
		return img
	}
}

func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.Y-1-y, x-b.Min.X, img.At(x, y))
		}
	}
	return out
}

func rotate180(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, b.Max.Y-1-y, img.At(x, y))
		}
	}
	return out
}

func rotate270(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(y-b.Min.Y, b.Max.X-1-x, img.At(x, y))
		}
	}
	return out
}

func flipH(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}

// prepareImage resizes the shortest side to inputSize, center-crops a
// square, and returns normalized CHW float32 pixels.
func prepareImage(img image.Image) []float32 {
	scaled := resizeShortestSide(img, inputSize)
	cropped := centerCrop(scaled, inputSize)

	out := make([]float32, 3*inputSize*inputSize)
	b := cropped.Bounds()
	plane := inputSize * inputSize
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := cropped.At(x, y).RGBA()
			out[i] = (float32(r)/65535 - clipMean[0]) / clipStd[0]
			out[plane+i] = (float32(g)/65535 - clipMean[1]) / clipStd[1]
			out[2*plane+i] = (float32(bl)/65535 - clipMean[2]) / clipStd[2]
			i++
		}
	}
	return out
}

// resizeShortestSide scales img so its shorter dimension equals size,
// preserving aspect ratio.
func resizeShortestSide(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, size, size))
	}

	var newW, newH int
	if w < h {
		newW = size
		newH = h * size / w
	} else {
		newH = size
		newW = w * size / h
	}

	out := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}

// centerCrop extracts the centered size×size square.
func centerCrop(img image.Image, size int) image.Image {
	b := img.Bounds()
	x0 := b.Min.X + (b.Dx()-size)/2
	y0 := b.Min.Y + (b.Dy()-size)/2
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return out
}
