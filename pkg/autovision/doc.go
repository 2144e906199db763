// Package autovision infers a vehicle's make, model, exterior color, and
// approximate model year from 2-6 listing photos, using a local CLIP-style
// model in zero-shot mode against a dynamically loaded label catalog.
//
// Basic usage:
//
//	d := autovision.New(
//		autovision.WithModelDir("models"),
//		autovision.WithDatasetPath("data/listings.csv"),
//	)
//	defer d.Close()
//
//	res, err := d.Detect(ctx, []string{"front.jpg", "side.jpg"})
//	if err != nil { ... }
//
//	form := d.Prefill(res) // empty when confidence is low
//
// Results are cached per (image set, taxonomy version); repeated calls on
// an unchanged image set return instantly. Low confidence is a successful
// outcome: Prefill is empty but TopK suggestions remain available.
package autovision
