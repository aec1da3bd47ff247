package fastq_test

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/imartayan/BRRR/encoding/fasta"
	"github.com/imartayan/BRRR/encoding/fastq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func scanAll(t *testing.T, in string) []fasta.Read {
	sc := fastq.NewScanner(strings.NewReader(in))
	var (
		reads []fasta.Read
		r     fasta.Read
	)
	for sc.Scan(&r) {
		reads = append(reads, fasta.Read{Name: r.Name, Seq: append([]byte(nil), r.Seq...)})
	}
	expect.NoError(t, sc.Err())
	return reads
}

func TestScanner(t *testing.T) {
	reads := scanAll(t, "@read1\nACGT\n+\nFFFF\n@read2 desc\nGGAT\n+read2\n!!!!\n")
	assert.Equal(t, []fasta.Read{
		{Name: "read1", Seq: []byte("ACGT")},
		{Name: "read2 desc", Seq: []byte("GGAT")},
	}, reads)
}

func TestScannerCRLF(t *testing.T) {
	reads := scanAll(t, "@r\r\nACGT\r\n+\r\nFFFF\r\n")
	assert.Equal(t, []fasta.Read{{Name: "r", Seq: []byte("ACGT")}}, reads)
}

func TestScannerEmpty(t *testing.T) {
	expect.EQ(t, len(scanAll(t, "")), 0)
}

func TestScannerInvalidHeader(t *testing.T) {
	sc := fastq.NewScanner(strings.NewReader(">r\nACGT\n+\nFFFF\n"))
	var r fasta.Read
	expect.False(t, sc.Scan(&r))
	expect.True(t, errors.Cause(sc.Err()) == fastq.ErrInvalid)
}

func TestScannerInvalidSeparator(t *testing.T) {
	sc := fastq.NewScanner(strings.NewReader("@r\nACGT\nFFFF\n"))
	var r fasta.Read
	expect.False(t, sc.Scan(&r))
	expect.True(t, errors.Cause(sc.Err()) == fastq.ErrInvalid)
}

func TestScannerShort(t *testing.T) {
	sc := fastq.NewScanner(strings.NewReader("@r\nACGT\n+\n"))
	var r fasta.Read
	expect.False(t, sc.Scan(&r))
	expect.True(t, sc.Err() == fastq.ErrShort)
}

func TestScannerReuse(t *testing.T) {
	sc := fastq.NewScanner(strings.NewReader("@r1\nACGTACGT\n+\nFFFFFFFF\n@r2\nGG\n+\nFF\n"))
	var r fasta.Read
	expect.True(t, sc.Scan(&r))
	expect.True(t, sc.Scan(&r))
	expect.EQ(t, r.Name, "r2")
	expect.EQ(t, string(r.Seq), "GG")
	expect.False(t, sc.Scan(&r))
	expect.NoError(t, sc.Err())
}
