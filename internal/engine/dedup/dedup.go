// Package dedup filters perceptually near-identical images out of an
// upload set, so a burst of duplicate shots cannot dominate the aggregated
// evidence.
package dedup

import (
	"image"
	"sort"

	"github.com/corona10/goimagehash"
)

// hammingThreshold is the maximum dHash distance below which two images are
// considered the same shot.
const hammingThreshold = 10

// Select returns one representative per group of perceptually near-identical
// images. Selection depends only on image content, never on input order:
// candidates are visited in ascending hash order, so permuting the input set
// always yields the same representatives. Images that cannot be hashed are
// kept unconditionally: dropping evidence on a hashing error would be worse
// than double-counting it.
func Select(imgs []image.Image) []image.Image {
	type candidate struct {
		img  image.Image
		hash *goimagehash.ImageHash
	}

	kept := make([]image.Image, 0, len(imgs))
	cands := make([]candidate, 0, len(imgs))
	for _, img := range imgs {
		hash, err := goimagehash.DifferenceHash(img)
		if err != nil {
			kept = append(kept, img)
			continue
		}
		cands = append(cands, candidate{img: img, hash: hash})
	}

	sort.Slice(cands, func(i, j int) bool {
		return cands[i].hash.GetHash() < cands[j].hash.GetHash()
	})

	var reps []candidate
	for _, c := range cands {
		dup := false
		for _, r := range reps {
			if dist, err := c.hash.Distance(r.hash); err == nil && dist < hammingThreshold {
				dup = true
				break
			}
		}
		if !dup {
			reps = append(reps, c)
		}
	}

	for _, r := range reps {
		kept = append(kept, r.img)
	}
	return kept
}
