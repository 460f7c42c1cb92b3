/*
PURPOSE:
  Loads the problem dataset: a file of concatenated MessagePack records,
  each a map with keys solver, embedding, J and h.

REQUIREMENTS:
  User-specified:
  - Read records sequentially until end of stream.
  - Missing file and empty dataset are fatal.

  Implementation-discovered:
  - Keys are decoded into pointer fields so that an absent key can be told
    apart from an empty value. Absent keys are recorded on the instance and
    reported later, per instance.
  - A record cut short at the end of the file is a decode error, not a
    silent end of stream.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run), internal/cli (inspect)
  - Uses: internal/framing, internal/model

ERROR HANDLING:
  - ErrNotFound, ErrEmptyDataset, *DecodeError.

IMPLEMENTATION RULES:
  - Never drop a record silently.
  - Instance indexes are 1-based.

USAGE:
  instances, err := dataset.LoadAll("data_20.msgpack")

SELF-HEALING INSTRUCTIONS:
  - If the producer changes key names, update Record's codec tags.

RELATED FILES:
  - internal/framing/framing.go
  - internal/model/types.go

MAINTENANCE:
  - Keep Record in sync with whatever writes the dataset.
*/

package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/daryltucker/anneal-runner/internal/framing"
	"github.com/daryltucker/anneal-runner/internal/model"
)

var (
	// ErrNotFound is returned when the dataset path does not exist.
	ErrNotFound = errors.New("dataset not found")
	// ErrEmptyDataset is returned when the stream holds no records.
	ErrEmptyDataset = errors.New("no problem instances loaded")
)

// DecodeError reports a record that could not be decoded.
type DecodeError struct {
	Path   string
	Record int // 1-based index of the offending record
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: record %d (offset %d): %v", e.Path, e.Record, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Record is the on-disk layout of one problem instance.
type Record struct {
	Solver    *string          `codec:"solver"`
	Embedding *model.Embedding `codec:"embedding"`
	J         *model.Couplings `codec:"J"`
	H         *map[int]float64 `codec:"h"`
}

// NewRecord builds a Record with every key present.
func NewRecord(solver string, emb model.Embedding, j model.Couplings, h map[int]float64) Record {
	return Record{Solver: &solver, Embedding: &emb, J: &j, H: &h}
}

// Instance converts a decoded record into a ProblemInstance.
func (r Record) Instance(index int) model.ProblemInstance {
	inst := model.ProblemInstance{Index: index}
	if r.Solver != nil {
		inst.Solver = *r.Solver
	} else {
		inst.Missing = append(inst.Missing, model.FieldSolver)
	}
	if r.Embedding != nil {
		inst.Embedding = *r.Embedding
	} else {
		inst.Missing = append(inst.Missing, model.FieldEmbedding)
	}
	if r.J != nil {
		inst.J = *r.J
	} else {
		inst.Missing = append(inst.Missing, model.FieldJ)
	}
	if r.H != nil {
		inst.H = *r.H
	} else {
		inst.Missing = append(inst.Missing, model.FieldH)
	}
	return inst
}

// LoadAll reads every instance from the file at path.
func LoadAll(path string) ([]model.ProblemInstance, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	instances, err := Decode(f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return instances, nil
}

// Decode reads instances from r until end of stream.
func Decode(r io.Reader) ([]model.ProblemInstance, error) {
	fr := framing.NewReader(r)
	var instances []model.ProblemInstance
	for {
		var rec Record
		err := fr.Next(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Record: fr.Records() + 1, Offset: fr.Offset(), Err: err}
		}
		instances = append(instances, rec.Instance(fr.Records()))
	}
	if len(instances) == 0 {
		return nil, ErrEmptyDataset
	}
	return instances, nil
}

// Write appends records to w using the dataset framing.
func Write(w io.Writer, recs ...Record) error {
	fw := framing.NewWriter(w)
	for i, rec := range recs {
		if err := fw.Write(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i+1, err)
		}
	}
	return nil
}
