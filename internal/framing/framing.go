// Package framing reads and writes streams of concatenated MessagePack
// values. Each value is self-delimiting, so a file is simply the records
// written back to back with no length prefixes or separators.
package framing

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var handle = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return h
}

// countingReader tracks how many bytes the decoder has consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Reader decodes records one at a time.
type Reader struct {
	cr       *countingReader
	dec      *codec.Decoder
	boundary int64
	records  int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	cr := &countingReader{r: r}
	return &Reader{
		cr:  cr,
		dec: codec.NewDecoder(cr, handle),
	}
}

// Next decodes the next record into v. It returns io.EOF at a clean end of
// stream and io.ErrUnexpectedEOF when the stream stops inside a record.
func (r *Reader) Next(v interface{}) error {
	err := r.dec.Decode(v)
	if err == nil {
		r.boundary = r.cr.n
		r.records++
		return nil
	}
	if isEOF(err) {
		if r.cr.n == r.boundary {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	return err
}

// isEOF reports whether err came from running out of input. The decoder may
// wrap the underlying io error in its own error type.
func isEOF(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return strings.HasSuffix(err.Error(), io.EOF.Error())
}

// Records returns the number of records decoded so far.
func (r *Reader) Records() int {
	return r.records
}

// Offset returns the byte offset just past the last complete record.
func (r *Reader) Offset() int64 {
	return r.boundary
}

// Marshal encodes v as a single record.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, handle).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writer appends records to an underlying writer. Each record is encoded in
// full before it is handed to w in a single Write call.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes v and writes it as one record.
func (w *Writer) Write(v interface{}) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.w.Write(b)
	return err
}
