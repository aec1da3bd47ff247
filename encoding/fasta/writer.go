package fasta

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Writer emits FASTA records, one sequence line per record. Not threadsafe;
// the correction pipeline funnels all output through a single collector.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one record. The first error encountered is sticky and
// returned by every subsequent call.
func (w *Writer) Write(name string, seq []byte) error {
	if w.err != nil {
		return w.err
	}
	w.setErr(w.w.WriteByte('>'))
	if _, err := w.w.WriteString(name); err != nil {
		w.setErr(err)
	}
	w.setErr(w.w.WriteByte('\n'))
	if _, err := w.w.Write(seq); err != nil {
		w.setErr(err)
	}
	w.setErr(w.w.WriteByte('\n'))
	return w.err
}

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.setErr(w.w.Flush())
	return w.err
}

func (w *Writer) setErr(err error) {
	if err != nil && w.err == nil {
		w.err = errors.Wrap(err, "fasta write")
	}
}
