package main

/*
gigmap-gather collects per-specimen FAMLI gene abundance results into one
combined table restricted to the genes present in a reference alignment
table. One filter unit runs per specimen artifact; a malformed specimen
never aborts the rest of the run.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/gigmap/gigmap/gather"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

var (
	alignments  = flag.String("alignments", "", "Reference alignment table (CSV, optionally gzipped); this xor -keyset required")
	keysetPath  = flag.String("keyset", "", "Prebuilt gene key set artifact; this xor -alignments required")
	specimens   = flag.String("specimens", "", "Glob pattern matching per-specimen *.json.gz abundance artifacts (required)")
	outPrefix   = flag.String("out", "combined", "Output path prefix; the combined table is written to <out>.csv.gz")
	filteredDir = flag.String("filtered-dir", "", "Directory for per-specimen filtered tables; empty disables them")
	readCounts  = flag.String("read-counts", "", "Directory of per-specimen *.num_reads.txt files; when set, the combined table carries a tot_reads column")
	mode        = flag.String("mode", "gene", "Key column mode: 'gene' (qseqid) or 'genome' (sseqid)")
	parallelism = flag.Int("parallelism", gather.DefaultOpts.Parallelism, "Maximum number of simultaneous filter units; 0 = runtime.NumCPU()")
)

func gatherUsage() {
	fmt.Printf("Usage: %s -specimens GLOB {-alignments PATH | -keyset PATH} [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = gatherUsage
	shutdown := grail.Init()
	defer shutdown()

	if *specimens == "" {
		log.Fatalf("-specimens is required; please check flag syntax")
	}
	if (*alignments == "") == (*keysetPath == "") {
		log.Fatalf("exactly one of -alignments and -keyset is required")
	}
	opts := gather.Opts{
		KeySetPath:   *keysetPath,
		FilteredDir:  *filteredDir,
		ReadCountDir: *readCounts,
		Parallelism:  *parallelism,
	}
	switch *mode {
	case "gene":
		opts.Mode = gather.ByGene
	case "genome":
		opts.Mode = gather.ByGenome
	default:
		log.Fatalf("unknown -mode %q; expected 'gene' or 'genome'", *mode)
	}

	ctx := vcontext.Background()
	res, err := gather.Run(ctx, *alignments, *specimens, *outPrefix, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if failed := res.Failures(); len(failed) > 0 {
		for _, u := range failed {
			log.Error.Printf("%s: %v", u.Specimen, u.Err)
		}
		log.Error.Printf("%d of %d specimens failed; combined table holds the survivors", len(failed), len(res.Units))
		os.Exit(1)
	}
	log.Debug.Printf("exiting")
}
