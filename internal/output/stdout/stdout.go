// Package stdout writes JSON-encoded detection results to standard output.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/parkbench/autovision/internal/model"
	"github.com/parkbench/autovision/internal/output"
)

// Output encodes results to stdout.
type Output struct {
	enc     *json.Encoder
	verbose bool
}

// New creates a stdout Output with optional pretty-printing.
func New(verbose, pretty bool) *Output {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc, verbose: verbose}
}

func (o *Output) Write(_ context.Context, res *model.Result) error {
	if err := o.enc.Encode(output.Format(res, o.verbose)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
