// Package cropper provides a best-effort crop of the input image to the
// most likely vehicle region. The real implementation requires OpenCV and
// is compiled only with -tags gocv; the default build passes images through
// unchanged. Cropping never fails; any problem means "no crop found".
package cropper

import "image"

// CropToVehicle returns the image cropped to the largest vehicle-like
// region, or the image unchanged when localization is unavailable or finds
// nothing.
func CropToVehicle(img image.Image) image.Image {
	if img == nil {
		return img
	}
	return cropToVehicle(img)
}
