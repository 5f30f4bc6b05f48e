// Package progress writes progress updates for the long-running index and
// query operations.
package progress

import (
	"github.com/pcj/mobyprogress"
)

// WriteIndexProgress reports progress while indexing a set of files.
func WriteIndexProgress(output mobyprogress.Output, current, total int, lastUpdate bool) {
	output.WriteProgress(mobyprogress.Progress{
		ID:         "index",
		Action:     "computing partial paths",
		Current:    int64(current),
		Total:      int64(total),
		Units:      "files",
		LastUpdate: lastUpdate,
	})
}

// WriteIndexMessage reports a one-off message during indexing.
func WriteIndexMessage(output mobyprogress.Output, message string) {
	output.WriteProgress(mobyprogress.Progress{
		ID:      "index",
		Action:  "index",
		Message: message,
	})
}

// WriteQueryProgress reports progress while running query phases.
func WriteQueryProgress(output mobyprogress.Output, phase, queued int) {
	output.WriteProgress(mobyprogress.Progress{
		ID:      "query",
		Action:  "stitching",
		Current: int64(phase),
		Units:   "phases",
		Aux:     queued,
	})
}
