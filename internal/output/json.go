/*
PURPOSE:
  Writes per-instance summaries to a JSON Lines file (NDJSON).
  Optimized for machine parsing alongside the binary results file.

REQUIREMENTS:
  User-specified:
  - JSON output for easier parsing.

  Implementation-discovered:
  - JSON Lines is better for streaming/logging than a single large array (append-friendly).
  - A summary for an instance with no rows has a NaN lowest energy, which
    encoding/json refuses; it is written as 0 instead.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.Summary

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONWriter("summary.jsonl")
  w.Write(summary)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update if we switch to plain JSON array (not recommended for streaming).
*/

package output

import (
	"encoding/json"
	"math"
	"os"
	"sync"

	"github.com/daryltucker/anneal-runner/internal/model"
)

// JSONWriter handles writing summaries to a JSON Lines file.
type JSONWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(path string) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Write writes a single summary as a JSON line.
func (jw *JSONWriter) Write(s model.Summary) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if math.IsNaN(s.LowestEnergy) || math.IsInf(s.LowestEnergy, 0) {
		s.LowestEnergy = 0
	}
	return jw.encoder.Encode(s)
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	return jw.file.Close()
}
