// Package output writes detection results to their destinations.
package output

import (
	"context"

	"github.com/parkbench/autovision/internal/model"
)

// Output is a destination for detection results.
type Output interface {
	Write(ctx context.Context, res *model.Result) error
	Close() error
}
