// Package file appends detection results as NDJSON to a file, which serves
// as a simple audit log of detections.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/parkbench/autovision/internal/model"
	"github.com/parkbench/autovision/internal/output"
)

const defaultBufSize = 64 * 1024

// Output appends NDJSON result lines with buffered I/O.
type Output struct {
	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	verbose bool
}

// New creates a file output appending to path.
func New(path string, verbose bool) (*Output, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file output: open %s: %w", path, err)
	}
	return &Output{
		f:       f,
		w:       bufio.NewWriterSize(f, defaultBufSize),
		verbose: verbose,
	}, nil
}

// Write appends the result as one JSON line.
func (o *Output) Write(_ context.Context, res *model.Result) error {
	data, err := json.Marshal(output.Format(res, o.verbose))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(data); err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}
