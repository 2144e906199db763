package model

import "errors"

// Failure kinds the engine reports to callers. Matched with errors.Is; the
// calling layer must render each distinctly. Low confidence is not among
// them; it is a successful result state, not an error.
var (
	// ErrNoImages: the caller supplied an empty image list.
	ErrNoImages = errors.New("no images supplied")

	// ErrNoReadableImages: every supplied image failed to load or decode.
	ErrNoReadableImages = errors.New("no readable images in set")

	// ErrTaxonomy: the reference dataset could not be read or parsed.
	ErrTaxonomy = errors.New("taxonomy unavailable")

	// ErrClassifier: the embedding model failed during inference.
	ErrClassifier = errors.New("classification failed")
)
