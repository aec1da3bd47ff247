// Package fastq streams FASTQ records for pipelines that only need the
// sequence. The quality line is consumed but not retained: correction can
// change a read's length, after which the original qualities no longer
// line up with the bases.
package fastq

import (
	"bufio"
	"io"

	"github.com/imartayan/BRRR/encoding/fasta"
	"github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
)

const maxLineSize = 256 * 1024 * 1024

// Scanner provides a convenient interface for streaming FASTQ records.
// Scanners are not threadsafe.
//
// Scanner performs some validation: it requires ID lines to begin with "@"
// and that line 3 begins with "+", but does not perform further validation
// (e.g., seq/qual being of equal length, containing only data in range,
// etc.)
type Scanner struct {
	b   *bufio.Scanner
	err error
	eof bool
}

// NewScanner constructs a new Scanner that reads raw FASTQ data from the
// provided reader.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{b: b}
}

// Scan the next record into the provided read, reusing read.Seq when it has
// capacity. The ID is kept without its leading '@'; the quality line is
// consumed and discarded. Scan returns a boolean indicating whether the
// scan succeeded. Once Scan returns false, it never returns true again.
// Upon completion, the user should check the Err method to determine
// whether scanning stopped because of an error or because the end of the
// stream was reached.
func (s *Scanner) Scan(read *fasta.Read) bool {
	if s.err != nil || s.eof {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.eof = true
		}
		return false
	}
	id := s.line()
	if len(id) == 0 || id[0] != '@' {
		s.err = errors.Wrapf(ErrInvalid, "expected '@', got %q", id)
		return false
	}
	read.Name = string(id[1:])
	if !s.scan() {
		return false
	}
	read.Seq = append(read.Seq[:0], s.line()...)
	if !s.scan() {
		return false
	}
	if plus := s.line(); len(plus) == 0 || plus[0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "expected '+', got %q", plus)
		return false
	}
	return s.scan()
}

// scan advances to the next line of the current record.
func (s *Scanner) scan() bool {
	ok := s.b.Scan()
	if !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
	}
	return ok
}

// line returns the current line with any trailing carriage return removed.
func (s *Scanner) line() []byte {
	line := s.b.Bytes()
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

// Err returns the first error encountered, or nil if scanning stopped at
// end of stream.
func (s *Scanner) Err() error {
	return s.err
}
