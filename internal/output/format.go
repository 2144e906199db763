package output

import "github.com/parkbench/autovision/internal/model"

// Format returns a copy of the result prepared for external consumers.
// Unless verbose is set, the debug payload is stripped; it exists for
// offline tuning, not for callers.
func Format(res *model.Result, verbose bool) *model.Result {
	if verbose || res.Meta.Debug == nil {
		return res
	}
	out := *res
	out.Meta.Debug = nil
	return &out
}
