package gather

// Mode selects which alignment table column supplies the gene keys.
type Mode int

const (
	// ByGene keys on the query sequence ID ("qseqid", first column).
	ByGene Mode = iota
	// ByGenome keys on the subject sequence ID ("sseqid", second column).
	ByGenome
)

// KeyColumn returns the zero-based column index and the exact header name
// required for this mode.
func (m Mode) KeyColumn() (int, string) {
	if m == ByGenome {
		return 1, "sseqid"
	}
	return 0, "qseqid"
}

func (m Mode) String() string {
	if m == ByGenome {
		return "genome"
	}
	return "gene"
}

type Opts struct {
	// Mode selects the key column of the reference alignment table.
	Mode Mode
	// KeySetPath, when nonempty, names a prebuilt gene key set artifact to
	// read instead of building one from the reference alignment table.
	KeySetPath string
	// FilteredDir, when nonempty, receives one <specimen>.csv.gz per
	// specimen with nonzero overlap. Empty means the filtered tables are
	// passed to the aggregator in memory only.
	FilteredDir string
	// ReadCountDir, when nonempty, names a directory of per-specimen
	// <specimen>.num_reads.txt files; the combined table then carries a
	// tot_reads column. Empty disables the join.
	ReadCountDir string
	// Parallelism caps the number of concurrently running specimen filter
	// units; 0 means runtime.NumCPU().
	Parallelism int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Mode: ByGene, // Go: -mode=gene, original: --aggregate-genes
}
