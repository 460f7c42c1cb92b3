/*
PURPOSE:
  Writes per-instance summaries to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Output to CSV.

  Implementation-discovered:
  - Summaries describe one run, so the file is overwritten rather than
    appended (unlike the results file).

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.Summary

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).

USAGE:
  w, err := output.NewCSVWriter("summary.csv")
  w.Write(summary)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when Summary struct changes.
*/

package output

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/daryltucker/anneal-runner/internal/model"
)

// CSVHeader is the first row of every summary CSV.
var CSVHeader = []string{
	"run_id", "index", "status", "solver", "problem_id", "timestamp",
	"duration_s", "num_rows", "num_reads", "lowest_energy",
	"mean_chain_break", "error",
}

// CSVWriter handles writing summaries to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single summary to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(s model.Summary) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	lowest := ""
	if !math.IsNaN(s.LowestEnergy) && s.NumRows > 0 {
		lowest = strconv.FormatFloat(s.LowestEnergy, 'g', -1, 64)
	}

	record := []string{
		s.RunID,
		strconv.Itoa(s.Index),
		s.Status,
		s.Solver,
		s.ProblemID,
		s.Timestamp.Format(time.RFC3339),
		strconv.FormatFloat(s.Duration.Seconds(), 'f', 4, 64),
		strconv.Itoa(s.NumRows),
		strconv.Itoa(s.NumReads),
		lowest,
		strconv.FormatFloat(s.MeanChainBreak, 'f', 4, 64),
		s.Error,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}
