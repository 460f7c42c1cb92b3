package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/anneal-runner/internal/model"
)

func sampleRecord(solver string) Record {
	return NewRecord(solver,
		model.Embedding{0: {0, 4}, 1: {1}},
		model.Couplings{{I: 0, J: 1, Value: -1}},
		map[int]float64{0: 0.001, 4: -0.002},
	)
}

func writeDataset(t *testing.T, recs ...Record) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, recs...))
	path := filepath.Join(t.TempDir(), "data.msgpack")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestLoadAll_PreservesOrderAndFields(t *testing.T) {
	path := writeDataset(t, sampleRecord("Advantage_system4.1"), sampleRecord("ignored"), sampleRecord("ignored"))

	instances, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, instances, 3)

	first := instances[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "Advantage_system4.1", first.Solver)
	assert.Equal(t, []int{0, 4}, first.Embedding[0])
	assert.Equal(t, model.Couplings{{I: 0, J: 1, Value: -1}}, first.J)
	assert.InDelta(t, -0.002, first.H[4], 1e-12)
	assert.Empty(t, first.Missing)
	assert.NoError(t, first.Validate())

	assert.Equal(t, 2, instances[1].Index)
	assert.Equal(t, 3, instances[2].Index)
}

func TestLoadAll_RecordsMissingKeys(t *testing.T) {
	broken := sampleRecord("ignored")
	broken.J = nil
	broken.H = nil
	path := writeDataset(t, sampleRecord("s"), broken)

	instances, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, instances, 2)

	assert.ElementsMatch(t, []string{model.FieldJ, model.FieldH}, instances[1].Missing)
	err = instances[1].Validate()
	var mfe *model.MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, 2, mfe.Index)
	assert.Contains(t, err.Error(), "J")
}

func TestLoadAll_EmptyValuesAreNotMissing(t *testing.T) {
	rec := NewRecord("s", model.Embedding{}, model.Couplings{}, map[int]float64{})
	path := writeDataset(t, rec)

	instances, err := LoadAll(path)
	require.NoError(t, err)
	assert.Empty(t, instances[0].Missing)
}

func TestLoadAll_NotFound(t *testing.T) {
	_, err := LoadAll(filepath.Join(t.TempDir(), "nope.msgpack"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadAll_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.msgpack")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := LoadAll(path)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadAll_TruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecord("s"), sampleRecord("s")))
	data := buf.Bytes()
	path := filepath.Join(t.TempDir(), "cut.msgpack")
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0644))

	_, err := LoadAll(path)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, 2, de.Record)
	assert.Equal(t, path, de.Path)
}
