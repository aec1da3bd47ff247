package reads_test

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/imartayan/BRRR/encoding/fasta"
	"github.com/imartayan/BRRR/reads"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const nTestReads = 200

func testInput() string {
	var sb strings.Builder
	for i := 0; i < nTestReads; i++ {
		fmt.Fprintf(&sb, ">read%d\n%s\n", i, strings.Repeat("ACGT", i%7+1))
	}
	return sb.String()
}

func TestProcess(t *testing.T) {
	var names []string
	err := reads.Process(fasta.NewScanner(strings.NewReader(testInput())), func(r *fasta.Read) error {
		names = append(names, r.Name)
		return nil
	})
	expect.NoError(t, err)
	expect.EQ(t, len(names), nTestReads)
	expect.EQ(t, names[0], "read0")
	expect.EQ(t, names[nTestReads-1], fmt.Sprintf("read%d", nTestReads-1))
}

func TestProcessError(t *testing.T) {
	calls := 0
	err := reads.Process(fasta.NewScanner(strings.NewReader(testInput())), func(r *fasta.Read) error {
		calls++
		if calls == 3 {
			return errors.New("boom")
		}
		return nil
	})
	expect.HasSubstr(t, err.Error(), "boom")
	expect.EQ(t, calls, 3)
}

func TestParallelProcessSeesEveryRead(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	err := reads.ParallelProcess(fasta.NewScanner(strings.NewReader(testInput())), 8, 4,
		func(worker int, r *fasta.Read) error {
			expect.True(t, worker >= 0 && worker < 8)
			mu.Lock()
			seen = append(seen, r.Name+":"+string(r.Seq))
			mu.Unlock()
			return nil
		})
	expect.NoError(t, err)

	var want []string
	expect.NoError(t, reads.Process(fasta.NewScanner(strings.NewReader(testInput())), func(r *fasta.Read) error {
		want = append(want, r.Name+":"+string(r.Seq))
		return nil
	}))
	sort.Strings(seen)
	sort.Strings(want)
	assert.Equal(t, want, seen)
}

func TestParallelProcessError(t *testing.T) {
	err := reads.ParallelProcess(fasta.NewScanner(strings.NewReader(testInput())), 4, 2,
		func(worker int, r *fasta.Read) error {
			if r.Name == "read17" {
				return errors.New("bad read")
			}
			return nil
		})
	expect.HasSubstr(t, err.Error(), "bad read")
}

func TestParallelProcessScannerError(t *testing.T) {
	err := reads.ParallelProcess(fasta.NewScanner(strings.NewReader("garbage\n")), 2, 2,
		func(worker int, r *fasta.Read) error { return nil })
	expect.True(t, errors.Cause(err) == fasta.ErrInvalid)
}

func TestParallelProcessResultOrdering(t *testing.T) {
	got := make([]string, 0, nTestReads)
	indices := make([]int, 0, nTestReads)
	err := reads.ParallelProcessResult(fasta.NewScanner(strings.NewReader(testInput())), 8, 4,
		func(worker int, r *fasta.Read, buf []byte) ([]byte, error) {
			buf = append(buf, r.Seq...)
			return buf, nil
		},
		func(r *reads.Result) error {
			expect.NoError(t, r.Err)
			got = append(got, r.Read.Name+":"+string(r.Buf))
			indices = append(indices, r.Index)
			return nil
		})
	expect.NoError(t, err)
	expect.EQ(t, len(got), nTestReads)

	// Indices are a permutation of the input positions, so sorting the
	// results by index restores input order.
	sort.Sort(&byIndex{indices, got})
	for i, s := range got {
		expect.EQ(t, indices[i], i)
		expect.EQ(t, s, fmt.Sprintf("read%d:%s", i, strings.Repeat("ACGT", i%7+1)))
	}
}

func TestParallelProcessResultPanic(t *testing.T) {
	var nErrs, nOK int
	err := reads.ParallelProcessResult(fasta.NewScanner(strings.NewReader(testInput())), 4, 2,
		func(worker int, r *fasta.Read, buf []byte) ([]byte, error) {
			if r.Name == "read42" {
				panic("corrupt record")
			}
			return append(buf, r.Seq...), nil
		},
		func(r *reads.Result) error {
			if r.Err != nil {
				expect.HasSubstr(t, r.Err.Error(), "corrupt record")
				expect.HasSubstr(t, r.Err.Error(), "read42")
				nErrs++
			} else {
				nOK++
			}
			return nil
		})
	expect.NoError(t, err)
	expect.EQ(t, nErrs, 1)
	expect.EQ(t, nOK, nTestReads-1)
}

func TestParallelProcessResultCollectorError(t *testing.T) {
	err := reads.ParallelProcessResult(fasta.NewScanner(strings.NewReader(testInput())), 4, 2,
		func(worker int, r *fasta.Read, buf []byte) ([]byte, error) {
			return append(buf, r.Seq...), nil
		},
		func(r *reads.Result) error {
			return errors.New("disk full")
		})
	expect.HasSubstr(t, err.Error(), "disk full")
}

type byIndex struct {
	indices []int
	values  []string
}

func (b *byIndex) Len() int           { return len(b.indices) }
func (b *byIndex) Less(i, j int) bool { return b.indices[i] < b.indices[j] }
func (b *byIndex) Swap(i, j int) {
	b.indices[i], b.indices[j] = b.indices[j], b.indices[i]
	b.values[i], b.values[j] = b.values[j], b.values[i]
}
