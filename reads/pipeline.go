// Package reads drives FASTA records through per-worker processing
// functions. The two passes of the corrector share the same shape: a single
// scanner goroutine feeds a bounded queue, a fixed set of workers consumes
// it, and record buffers are recycled through a free list to keep the steady
// state allocation-free.
package reads

import (
	"runtime"

	"github.com/grailbio/base/traverse"
	"github.com/imartayan/BRRR/encoding/fasta"
	"github.com/pkg/errors"
)

// Scanner is the record source of a pipeline. fasta.Scanner and
// fastq.Scanner both implement it.
type Scanner interface {
	// Scan fills the next record, reusing r.Seq when it has capacity, and
	// reports whether a record was read.
	Scan(r *fasta.Read) bool
	// Err returns the first error encountered, or nil at end of stream.
	Err() error
}

// Result is one processed record. Index is the zero-based position of the
// record in the input stream; workers complete out of order, so consumers
// that care about input order must reorder on Index themselves. Read and
// Buf are only valid until the consumer callback returns.
type Result struct {
	Index int
	Read  fasta.Read
	Buf   []byte
	Err   error
}

// Process applies fn to every record of sc in input order on the calling
// goroutine. The record passed to fn is reused between calls.
func Process(sc Scanner, fn func(r *fasta.Read) error) error {
	var r fasta.Read
	for sc.Scan(&r) {
		if err := fn(&r); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ParallelProcess applies fn to every record of sc using the given number
// of worker goroutines. Each worker has a stable id in [0, threads) so that
// callers can keep per-worker state without locking. Records are processed
// in arbitrary order. The first error from fn or the scanner is returned;
// the remaining records are still drained so that the feeder can finish.
func ParallelProcess(sc Scanner, threads, queueSize int, fn func(worker int, r *fasta.Read) error) error {
	threads, queueSize = clampPool(threads, queueSize)
	jobs := make(chan *Result, queueSize)
	pool := make(chan *Result, queueSize+threads)

	scanErr := make(chan error, 1)
	go feed(sc, jobs, pool, scanErr)

	err := traverse.Each(threads, func(worker int) error {
		var err error
		for r := range jobs {
			if err == nil {
				err = fn(worker, &r.Read)
			}
			recycle(pool, r)
		}
		return err
	})
	if err != nil {
		<-scanErr
		return err
	}
	return <-scanErr
}

// ParallelProcessResult applies fn to every record of sc using the given
// number of worker goroutines, then hands each Result to out on a single
// collector goroutine. fn receives a scratch buffer of zero length that it
// should append to and return; the buffer is recycled after out is done
// with it. Errors and panics inside fn do not stop the pipeline: they are
// reported per record through Result.Err, and out decides what to do with
// them. ParallelProcessResult returns the first scanner or collector error.
func ParallelProcessResult(sc Scanner, threads, queueSize int,
	fn func(worker int, r *fasta.Read, buf []byte) ([]byte, error),
	out func(r *Result) error) error {
	threads, queueSize = clampPool(threads, queueSize)
	jobs := make(chan *Result, queueSize)
	results := make(chan *Result, queueSize)
	pool := make(chan *Result, queueSize+threads)

	scanErr := make(chan error, 1)
	go feed(sc, jobs, pool, scanErr)

	outErr := make(chan error, 1)
	go func() {
		var err error
		for r := range results {
			if err == nil {
				err = out(r)
			}
			recycle(pool, r)
		}
		outErr <- err
	}()

	// Workers never fail: per-record errors travel inside the Result.
	_ = traverse.Each(threads, func(worker int) error {
		for r := range jobs {
			apply(fn, worker, r)
			results <- r
		}
		return nil
	})
	close(results)

	oerr := <-outErr
	serr := <-scanErr
	if serr != nil {
		return serr
	}
	return oerr
}

// apply runs fn on one record, converting a panic into a per-record error
// so that a single bad read cannot take down a whole multi-hour run.
func apply(fn func(worker int, r *fasta.Read, buf []byte) ([]byte, error), worker int, r *Result) {
	defer func() {
		if p := recover(); p != nil {
			r.Err = errors.Errorf("read %q: panic: %v", r.Read.Name, p)
		}
	}()
	r.Buf, r.Err = fn(worker, &r.Read, r.Buf[:0])
}

// feed scans every record of sc into a recycled Result and pushes it onto
// jobs, then reports the scanner error and closes the queue.
func feed(sc Scanner, jobs chan<- *Result, pool <-chan *Result, scanErr chan<- error) {
	index := 0
	for {
		var r *Result
		select {
		case r = <-pool:
		default:
			r = &Result{}
		}
		r.Index = index
		r.Err = nil
		r.Buf = r.Buf[:0]
		if !sc.Scan(&r.Read) {
			break
		}
		jobs <- r
		index++
	}
	close(jobs)
	scanErr <- sc.Err()
}

func recycle(pool chan *Result, r *Result) {
	select {
	case pool <- r:
	default:
	}
}

func clampPool(threads, queueSize int) (int, int) {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	if queueSize < 1 {
		queueSize = 4 * threads
	}
	return threads, queueSize
}
