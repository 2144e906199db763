//go:build !gocv
// +build !gocv

package cropper

import "image"

// cropToVehicle without OpenCV: localization is unavailable, which is
// equivalent to finding no vehicle region.
func cropToVehicle(img image.Image) image.Image {
	return img
}
