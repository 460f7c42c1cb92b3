/*
PURPOSE:
  Appends aggregated sample sets to the results file.
  Each successful instance becomes one {sampleset: ...} record.

REQUIREMENTS:
  User-specified:
  - Results are appended, never truncated: a rerun adds to the existing file.
  - A record that was written stays intact even if the run dies later.

  Implementation-discovered:
  - Opening the file once per run (instead of once per instance) keeps the
    handle lifetime obvious; the caller defers Close.
  - Records are encoded in full before being written so a failed encode
    never leaves half a record behind.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.SampleSet
  - Read back by: internal/cli inspect, via internal/framing

ERROR HANDLING:
  - Returns error on open, encode, write or sync failure.

IMPLEMENTATION RULES:
  - Same framing as the input dataset (internal/framing).
  - Sync after every record (crash resilience, like the CSV writer's Flush).

USAGE:
  w, err := output.OpenResults("results.msgpack")
  defer w.Close()
  w.Write(sampleSet)

SELF-HEALING INSTRUCTIONS:
  - If the record layout changes, update model.ResultRecord, not this file.

RELATED FILES:
  - internal/framing/framing.go
  - internal/model/types.go

MAINTENANCE:
  - None.
*/

package output

import (
	"fmt"
	"os"
	"sync"

	"github.com/daryltucker/anneal-runner/internal/framing"
	"github.com/daryltucker/anneal-runner/internal/model"
)

// ResultsWriter appends result records to a file.
type ResultsWriter struct {
	file    *os.File
	writer  *framing.Writer
	mu      sync.Mutex
	written int
}

// OpenResults opens path for appending, creating it if needed.
func OpenResults(path string) (*ResultsWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	return &ResultsWriter{
		file:   f,
		writer: framing.NewWriter(f),
	}, nil
}

// Write appends one record holding ss.
func (rw *ResultsWriter) Write(ss *model.SampleSet) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if err := rw.writer.Write(model.ResultRecord{SampleSet: ss}); err != nil {
		return fmt.Errorf("failed to write result record: %w", err)
	}
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync results file: %w", err)
	}
	rw.written++
	return nil
}

// Written returns the number of records appended through this writer.
func (rw *ResultsWriter) Written() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.written
}

// Path returns the file name the writer appends to.
func (rw *ResultsWriter) Path() string {
	return rw.file.Name()
}

// Close closes the underlying file.
func (rw *ResultsWriter) Close() error {
	return rw.file.Close()
}
