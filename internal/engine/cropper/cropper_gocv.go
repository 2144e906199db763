//go:build gocv
// +build gocv

package cropper

import (
	"image"

	"gocv.io/x/gocv"
)

// Region acceptance constraints. A vehicle photographed for a listing fills
// a substantial, roughly landscape portion of the frame.
const (
	minAreaRatio   = 0.05
	minAspectRatio = 0.4
	maxAspectRatio = 4.0
	cropMargin     = 0.05
)

// cropToVehicle runs coarse contour-based localization and crops to the
// largest plausible vehicle region with a small margin. Any failure along
// the way returns the original image.
func cropToVehicle(img image.Image) image.Image {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil || mat.Empty() {
		return img
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	frameArea := mat.Cols() * mat.Rows()
	best := image.Rectangle{}
	bestArea := 0
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		area := rect.Dx() * rect.Dy()
		if area < int(float64(frameArea)*minAreaRatio) || area <= bestArea {
			continue
		}
		if rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < minAspectRatio || aspect > maxAspectRatio {
			continue
		}
		best = rect
		bestArea = area
	}

	if bestArea == 0 {
		return img
	}

	return cropWithMargin(img, best)
}

// cropWithMargin expands rect by cropMargin on each side, clamps to the
// image bounds, and extracts the sub-image.
func cropWithMargin(img image.Image, rect image.Rectangle) image.Image {
	b := img.Bounds()
	mx := int(float64(rect.Dx()) * cropMargin)
	my := int(float64(rect.Dy()) * cropMargin)

	crop := image.Rect(
		rect.Min.X-mx+b.Min.X,
		rect.Min.Y-my+b.Min.Y,
		rect.Max.X+mx+b.Min.X,
		rect.Max.Y+my+b.Min.Y,
	).Intersect(b)
	if crop.Empty() {
		return img
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(crop)
	}
	return img
}
