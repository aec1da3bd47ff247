// BRRR corrects sequencing errors in FASTA read sets.
//
// The tool makes two passes over the input. The first pass counts canonical
// minimizers and, for kmers whose window minimizer is abundant enough,
// canonical kmers, in a pair of sharded Bloom filters. The second pass
// rewrites each read, replacing stretches of weak kmers with the unique
// solid bridge between their flanking anchors.
//
// Example:
//
//    brrr -t 16 -m 4000 reads.fa
//
// writes the corrected reads to reads.cor.fa.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/imartayan/BRRR/bloom"
	"github.com/imartayan/BRRR/correct"
	"github.com/imartayan/BRRR/encoding/fasta"
	"github.com/imartayan/BRRR/encoding/fastq"
	"github.com/imartayan/BRRR/reads"
	"github.com/klauspost/compress/gzip"
)

// queueSize is the depth of the bounded queue between the FASTA scanner and
// the worker pool, in records.
const queueSize = 32

type brrrFlags struct {
	output   string
	threads  int
	memoryMB int
	filter   string
}

func usage() {
	fmt.Fprint(os.Stderr, `
brrr corrects sequencing errors in a FASTA read set using two passes over
the input: one to count minimizers and kmers, one to rewrite the reads.

Usage:
  brrr [flags] /path/to/reads.fa[.gz]

The corrected reads are written to <input>.cor.<ext> unless -o is given.
Input and output files ending in .gz are transparently (de)compressed.
The kmer and minimizer lengths may also be set through the BRRR_K and
BRRR_M environment variables; the -k and -mmer flags take precedence.
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage

	opts := correct.DefaultOpts
	opts.K = envInt("BRRR_K", opts.K)
	opts.M = envInt("BRRR_M", opts.M)

	brrrFlags := brrrFlags{}
	flag.StringVar(&brrrFlags.output, "o", "", "Output file (defaults to <input>.cor.<ext>)")
	flag.IntVar(&brrrFlags.threads, "t", runtime.NumCPU(), "Number of threads (defaults to all available threads)")
	flag.IntVar(&brrrFlags.memoryMB, "m", 0, "Memory (in MB) allocated to Bloom filters (defaults to input size)")
	flag.StringVar(&brrrFlags.filter, "filter", "counting", "Abundance structure: counting or cascading")
	flag.IntVar(&opts.K, "k", opts.K, "Length of kmers (odd, at most 32)")
	flag.IntVar(&opts.M, "mmer", opts.M, "Length of minimizers (odd, at most k)")
	abundance := flag.Int("a", int(correct.DefaultOpts.Abundance), "Abundance above which kmers are solid")
	flag.IntVar(&opts.Validation, "v", correct.DefaultOpts.Validation, "Number of solid kmers required to validate a correction")
	flag.IntVar(&opts.Hashes, "H", correct.DefaultOpts.Hashes, "Number of hashes used in Bloom filters")
	flag.Uint64Var(&opts.Seed, "s", correct.DefaultOpts.Seed, "Seed used for hash functions")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
	}
	input := flag.Arg(0)
	if *abundance < 1 || *abundance > 255 {
		log.Fatalf("abundance %d out of range [1, 255]", *abundance)
	}
	opts.Abundance = uint8(*abundance)
	if err := opts.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}
	kind, err := bloom.ParseKind(brrrFlags.filter)
	if err != nil {
		log.Fatalf("%v", err)
	}
	output := brrrFlags.output
	if output == "" {
		output = defaultOutputPath(input)
	}
	threads := brrrFlags.threads
	if threads < 1 {
		log.Fatalf("thread count %d must be at least 1", threads)
	}

	var size uint64
	if brrrFlags.memoryMB > 0 {
		size = uint64(brrrFlags.memoryMB) * 1000 * 1000 / 2
	} else {
		info, err := os.Stat(input)
		if err != nil {
			log.Fatalf("stat %s: %v", input, err)
		}
		size = uint64(info.Size()) / 2
	}
	if size == 0 {
		log.Fatalf("memory budget too small for any filter (input %s)", input)
	}

	cfg := bloom.CounterConfig{
		Kind:   kind,
		Size:   size,
		Levels: *abundance,
		Hashes: opts.Hashes,
		Shards: threads * 4,
	}
	cfg.Seed = opts.Seed + uint64(opts.M)
	minCounts := bloom.NewCounter(cfg)
	cfg.Seed = opts.Seed + uint64(opts.K)
	kmerCounts := bloom.NewCounter(cfg)
	oracle := correct.NewOracle(opts, minCounts, kmerCounts)

	log.Printf("counting pass: %s (k=%d m=%d threads=%d filter=%s size=%d)",
		input, opts.K, opts.M, threads, kind, size)
	if err := countPass(input, oracle, threads); err != nil {
		log.Fatalf("counting pass: %v", err)
	}

	log.Printf("correction pass: %s -> %s", input, output)
	stats, err := correctPass(input, output, oracle, threads)
	if err != nil {
		log.Fatalf("correction pass: %v", err)
	}
	log.Printf("%s", stats)
}

// countPass fills the oracle's filters from every read of the input. Each
// worker owns an Observer so that the rolling kmer state needs no locking.
func countPass(input string, oracle *correct.Oracle, threads int) error {
	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	observers := make([]*correct.Observer, threads)
	for i := range observers {
		observers[i] = oracle.NewObserver()
	}
	return reads.ParallelProcess(newScanner(input, in), threads, queueSize,
		func(worker int, r *fasta.Read) error {
			observers[worker].Observe(r.Seq)
			return nil
		})
}

// correctPass rewrites every read of the input and writes the result to
// output. A read whose correction fails is written unchanged.
func correctPass(input, output string, oracle *correct.Oracle, threads int) (correct.Stats, error) {
	var stats correct.Stats

	in, err := openInput(input)
	if err != nil {
		return stats, err
	}
	defer in.Close()
	out, err := createOutput(output)
	if err != nil {
		return stats, err
	}
	w := fasta.NewWriter(out)

	correctors := make([]*correct.Corrector, threads)
	workerStats := make([]correct.Stats, threads)
	for i := range correctors {
		correctors[i] = correct.NewCorrector(oracle)
	}
	err = reads.ParallelProcessResult(newScanner(input, in), threads, queueSize,
		func(worker int, r *fasta.Read, buf []byte) ([]byte, error) {
			buf, s := correctors[worker].Correct(r.Seq, buf)
			workerStats[worker] = workerStats[worker].Merge(s)
			return buf, nil
		},
		func(r *reads.Result) error {
			seq := r.Buf
			if r.Err != nil {
				log.Printf("read %q: %v (written unchanged)", r.Read.Name, r.Err)
				seq = r.Read.Seq
			}
			return w.Write(r.Read.Name, seq)
		})
	if err != nil {
		out.Close()
		return stats, err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return stats, err
	}
	if err := out.Close(); err != nil {
		return stats, err
	}
	for _, s := range workerStats {
		stats = stats.Merge(s)
	}
	return stats, nil
}

// newScanner picks the record format from the input path. FASTQ input is
// accepted, but the output is always FASTA: correction can change read
// lengths, which invalidates the quality strings.
func newScanner(path string, r io.Reader) reads.Scanner {
	if isFastq(path) {
		return fastq.NewScanner(r)
	}
	return fasta.NewScanner(r)
}

func isFastq(path string) bool {
	path = strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(path, ".fastq") || strings.HasSuffix(path, ".fq")
}

// defaultOutputPath inserts ".cor" before the final extension, keeping a
// trailing ".gz" in place: reads.fa becomes reads.cor.fa and reads.fa.gz
// becomes reads.cor.fa.gz. FASTQ extensions map to .fa because the output
// is always FASTA.
func defaultOutputPath(input string) string {
	suffix := ""
	if strings.HasSuffix(input, ".gz") {
		input, suffix = strings.TrimSuffix(input, ".gz"), ".gz"
	}
	if isFastq(input) {
		if i := strings.LastIndexByte(input, '.'); i >= 0 {
			input = input[:i]
		}
		return input + ".cor.fa" + suffix
	}
	if i := strings.LastIndexByte(input, '.'); i >= 0 {
		return input[:i] + ".cor" + input[i:] + suffix
	}
	return input + ".cor" + suffix
}

func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	z, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipReadCloser{z, f}, nil
}

func createOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	return &gzipWriteCloser{gzip.NewWriter(f), f}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if e := g.f.Close(); err == nil {
		err = e
	}
	return err
}

type gzipWriteCloser struct {
	*gzip.Writer
	f *os.File
}

func (g *gzipWriteCloser) Close() error {
	err := g.Writer.Close()
	if e := g.f.Close(); err == nil {
		err = e
	}
	return err
}

func envInt(name string, def int) int {
	s := os.Getenv(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("%s=%q: %v", name, s, err)
	}
	return v
}
