package detect

import "fmt"

// DefaultColors is the fixed exterior color vocabulary. Deliberately small
// and domain-appropriate; not drawn from the reference dataset.
var DefaultColors = []string{
	"black", "white", "silver", "gray", "blue", "red",
	"green", "yellow", "brown", "beige", "gold", "orange",
}

// Color classifies the image against the color vocabulary and returns the
// full probability distribution.
func Color(s Scorer, imageVec []float32, colors []string) (map[string]float64, error) {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return s.Scores(imageVec, makeCandidates(colors, func(c string) string {
		return fmt.Sprintf(colorPrompt, c)
	}))
}
