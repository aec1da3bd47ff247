// Package fasta contains streaming readers and writers for FASTA files.
// Briefly, FASTA files consist of a number of named sequences that may be
// interrupted by newlines.  For example:
//
// >read1
// ACGTAC
// GAGGAC
// GCG
// >read2
// ACGT
//
// Unlike an indexed whole-genome reader, this package scans records in file
// order, one at a time, which is the access pattern of read sets: every
// record is visited exactly once per pass and never again.
package fasta

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ErrInvalid is returned when a malformed FASTA file is encountered.
var ErrInvalid = errors.New("invalid FASTA file")

// maxLineSize bounds a single input line. Long-read technologies emit
// multi-megabase sequences on one line.
const maxLineSize = 256 * 1024 * 1024

// A Read is one FASTA record: the header line without its leading '>' and
// the concatenation of its sequence lines.
type Read struct {
	Name string
	Seq  []byte
}

// Scanner provides a convenient interface for streaming FASTA records.  The
// Scan method fills the next record, returning a boolean indicating whether
// the read succeeded. Scanners are not threadsafe.
type Scanner struct {
	b    *bufio.Scanner
	err  error
	head []byte // header of the next record, nil before the first one
	eof  bool
}

// NewScanner constructs a new Scanner that reads raw FASTA data from the
// provided reader.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{b: b}
}

// Scan the next record into the provided read, reusing read.Seq when it has
// capacity. Scan returns a boolean indicating whether the scan succeeded.
// Once Scan returns false, it never returns true again.  Upon completion,
// the user should check the Err method to determine whether scanning
// stopped because of an error or because the end of the stream was reached.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil || s.eof {
		return false
	}
	if s.head == nil {
		if !s.scanLine() {
			return false
		}
		line := s.line()
		if len(line) == 0 || line[0] != '>' {
			s.err = errors.Wrapf(ErrInvalid, "expected '>', got %q", line)
			return false
		}
		s.head = append([]byte(nil), line...)
	}
	read.Name = string(s.head[1:])
	read.Seq = read.Seq[:0]
	for {
		if !s.scanLine() {
			if s.err == nil {
				s.eof = true
				return true // last record of the file
			}
			return false
		}
		line := s.line()
		if len(line) > 0 && line[0] == '>' {
			s.head = append(s.head[:0], line...)
			return true
		}
		read.Seq = append(read.Seq, line...)
	}
}

// scanLine advances to the next non-empty line.
func (s *Scanner) scanLine() bool {
	for {
		if !s.b.Scan() {
			s.err = s.b.Err()
			return false
		}
		if len(s.line()) > 0 {
			return true
		}
	}
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
