package gather

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
)

// UnitState is the terminal state of one specimen filter unit.
type UnitState int

const (
	// UnitFiltered means the unit produced a table with at least one row.
	UnitFiltered UnitState = iota
	// UnitSkipped means the unit had zero overlap with the key set and
	// produced no artifact.
	UnitSkipped
	// UnitFailed means the unit detected a schema or integrity violation.
	UnitFailed
)

func (s UnitState) String() string {
	switch s {
	case UnitFiltered:
		return "filtered"
	case UnitSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// UnitResult records the terminal state of one specimen filter unit.
type UnitResult struct {
	Specimen string
	Path     string
	RowsIn   int
	RowsKept int
	State    UnitState
	// Err is set iff State is UnitFailed.
	Err error

	table *FilteredTable
}

// Result summarizes one pipeline run.
type Result struct {
	// KeySetRows and KeySetUnique are the reference table row count and
	// the unique key count.
	KeySetRows   int
	KeySetUnique int
	Units        []UnitResult
	// CombinedRows is the number of rows in the published combined table.
	CombinedRows int
}

// Failures returns the units that reached the failed state.
func (r *Result) Failures() []UnitResult {
	var failed []UnitResult
	for _, u := range r.Units {
		if u.State == UnitFailed {
			failed = append(failed, u)
		}
	}
	return failed
}

// Run drives the whole pipeline: it builds the gene key set from the
// reference table at refPath (or reads opts.KeySetPath when set), fans it
// out to one filter unit per artifact matching glob, and aggregates every
// surviving table into <outPrefix>.csv.gz plus a per-unit report in
// <outPrefix>.report.tsv.
//
// Unit failures are isolated: a failed unit never stops its siblings, and
// the aggregator runs on the survivors once every unit is terminal. Run
// returns an error only for run-level failures (bad key set, nothing
// matching glob, an aggregation integrity violation, output I/O); per-unit
// failures are reported through Result.Failures. A run-level failure at or
// before the aggregation stage publishes no combined table.
func Run(ctx context.Context, refPath, glob, outPrefix string, opts Opts) (*Result, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, schemaErrorf(glob, "bad specimen pattern: %v", err)
	}
	if len(paths) == 0 {
		return nil, schemaErrorf(glob, "no specimen artifacts match")
	}
	sort.Strings(paths)

	// Duplicate labels make row provenance ambiguous whatever the units
	// end up producing, and would let two units clobber each other's
	// filtered artifact. Detect them before any unit runs.
	labels := map[string]string{}
	for _, path := range paths {
		label, ok := SpecimenLabel(path)
		if !ok {
			continue // the unit itself rejects the unrecognized suffix
		}
		if prev, dup := labels[label]; dup {
			return nil, integrityErrorf(label, "artifacts %s and %s resolve to the same specimen label", prev, path)
		}
		labels[label] = path
	}

	var keys KeySet
	res := &Result{}
	if opts.KeySetPath != "" {
		keys, res.KeySetRows, err = ReadKeySet(ctx, opts.KeySetPath, opts)
	} else {
		keys, res.KeySetRows, err = BuildKeySet(ctx, refPath, opts)
	}
	if err != nil {
		return nil, err
	}
	res.KeySetUnique = keys.Len()

	res.Units = make([]UnitResult, len(paths))
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(paths) {
		parallelism = len(paths)
	}
	log.Printf("filtering %d specimens (%d parallel units)", len(paths), parallelism)
	err = traverse.Each(parallelism, func(job int) error {
		for i := job; i < len(paths); i += parallelism {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Units[i] = runUnit(ctx, keys, paths[i], opts)
		}
		return nil
	})
	if err != nil {
		// Only cancellation reaches here; unit failures stay in Units.
		return nil, err
	}

	var tables []*FilteredTable
	for i := range res.Units {
		u := &res.Units[i]
		if u.State == UnitFailed {
			log.Error.Printf("%s: filter unit failed: %v", u.Specimen, u.Err)
			continue
		}
		if u.State == UnitFiltered {
			tables = append(tables, u.table)
		}
	}
	rows, err := Aggregate(tables)
	if err != nil {
		return res, err
	}
	res.CombinedRows = len(rows)

	out := interface{}(&rows)
	if opts.ReadCountDir != "" {
		counts, err := GatherReadCounts(ctx, opts.ReadCountDir)
		if err != nil {
			return res, err
		}
		counted, err := JoinReadCounts(rows, counts)
		if err != nil {
			return res, err
		}
		out = &counted
	}
	outPath := outPrefix + CombinedSuffix
	if err := WriteCombined(ctx, outPath, out); err != nil {
		return res, err
	}
	log.Printf("wrote %d combined rows for %d specimens to %s", res.CombinedRows, len(tables), outPath)

	if err := writeReport(ctx, outPrefix+".report.tsv", res); err != nil {
		return res, err
	}
	return res, nil
}

// runUnit wraps one FilterSpecimen call into a terminal UnitResult. It
// never returns an error: failures are recorded so sibling units keep
// running.
func runUnit(ctx context.Context, keys KeySet, path string, opts Opts) UnitResult {
	u := UnitResult{Path: path}
	if specimen, ok := SpecimenLabel(path); ok {
		u.Specimen = specimen
	} else {
		u.Specimen = filepath.Base(path)
	}
	tbl, err := FilterSpecimen(ctx, keys, path, opts)
	switch {
	case err != nil:
		u.State = UnitFailed
		u.Err = err
	case tbl == nil:
		u.State = UnitSkipped
	default:
		u.State = UnitFiltered
		u.RowsIn = tbl.RowsIn
		u.RowsKept = len(tbl.Records)
		u.table = tbl
	}
	return u
}

// writeReport writes the per-unit run report as TSV.
func writeReport(ctx context.Context, path string, res *Result) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create run report:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString(fmt.Sprintf("# key set: %d rows, %d unique", res.KeySetRows, res.KeySetUnique))
	if err = w.EndLine(); err != nil {
		return err
	}
	w.WriteString("specimen\tstate\trows_in\trows_kept\tdetail")
	if err = w.EndLine(); err != nil {
		return err
	}
	for _, u := range res.Units {
		w.WriteString(u.Specimen)
		w.WriteString(u.State.String())
		w.WriteString(strconv.Itoa(u.RowsIn))
		w.WriteString(strconv.Itoa(u.RowsKept))
		detail := ""
		if u.Err != nil {
			detail = u.Err.Error()
		}
		w.WriteString(detail)
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
