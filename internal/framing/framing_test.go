package framing

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Name string  `codec:"name"`
	X    float64 `codec:"x"`
	Tags []int   `codec:"tags"`
}

func TestReaderDecodesConcatenatedRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := []point{
		{Name: "a", X: 1.5, Tags: []int{1}},
		{Name: "b", X: -2, Tags: []int{2, 3}},
		{Name: "c", X: 0},
	}
	for _, p := range want {
		require.NoError(t, w.Write(p))
	}

	r := NewReader(&buf)
	var got []point
	for {
		var p point
		err := r.Next(&p)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, p)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, []int{2, 3}, got[1].Tags)
	assert.Equal(t, "c", got[2].Name)
	assert.Equal(t, 3, r.Records())
}

func TestReaderEmptyStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	var p point
	assert.Equal(t, io.EOF, r.Next(&p))
	assert.Equal(t, 0, r.Records())
}

func TestReaderTruncatedRecord(t *testing.T) {
	first, err := Marshal(point{Name: "whole", X: 1})
	require.NoError(t, err)
	second, err := Marshal(point{Name: "cut-short", X: 2, Tags: []int{1, 2, 3}})
	require.NoError(t, err)

	stream := append(append([]byte{}, first...), second[:len(second)/2]...)
	r := NewReader(bytes.NewReader(stream))

	var p point
	require.NoError(t, r.Next(&p))
	assert.Equal(t, "whole", p.Name)
	assert.Equal(t, int64(len(first)), r.Offset())

	err = r.Next(&p)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, 1, r.Records())
}
