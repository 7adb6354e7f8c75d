package gather

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/gigmap/gigmap/encoding/famli"
	"github.com/gocarina/gocsv"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// CombinedRow is one row of the combined table: an abundance record plus
// the specimen it came from.
type CombinedRow struct {
	famli.Record
	Specimen string `csv:"specimen"`
}

// CountedRow is a CombinedRow joined with the specimen's total read count.
type CountedRow struct {
	CombinedRow
	TotReads int64 `csv:"tot_reads"`
}

// Aggregate concatenates the filtered tables into combined rows. Tables
// may arrive in any order: rows are grouped by specimen and specimens are
// sorted by label, so the result is independent of upstream completion
// order. Within a specimen the record order of the filter unit is kept.
// Rows are never deduplicated across specimens.
//
// Two tables carrying the same specimen label make the provenance of their
// rows ambiguous; that is an IntegrityError, never a silent overwrite.
func Aggregate(tables []*FilteredTable) ([]CombinedRow, error) {
	sorted := make([]*FilteredTable, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Specimen < sorted[j].Specimen })

	seen := map[string]struct{}{}
	rows := []CombinedRow{}
	for _, tbl := range sorted {
		if _, ok := seen[tbl.Specimen]; ok {
			return nil, integrityErrorf(tbl.Specimen, "two artifacts resolve to the same specimen label")
		}
		seen[tbl.Specimen] = struct{}{}
		for _, rec := range tbl.Records {
			rows = append(rows, CombinedRow{Record: rec, Specimen: tbl.Specimen})
		}
	}
	return rows, nil
}

// JoinReadCounts attaches each row's specimen read count. Every specimen
// present in rows must have a count; a missing one is an IntegrityError,
// mirroring the upstream contract that read counting runs for every
// specimen that was aligned.
func JoinReadCounts(rows []CombinedRow, counts ReadCounts) ([]CountedRow, error) {
	out := []CountedRow{}
	for _, row := range rows {
		n, ok := counts[row.Specimen]
		if !ok {
			return nil, integrityErrorf(row.Specimen, "no read count found for specimen")
		}
		out = append(out, CountedRow{CombinedRow: row, TotReads: n})
	}
	return out, nil
}

// WriteCombined writes rows (a pointer to a slice of CombinedRow or
// CountedRow) to path as CSV, gzip-compressed when the path ends in ".gz".
// An empty slice still yields a well-formed header-only table: the
// pipeline always publishes its one well-known output, even when every
// specimen was skipped.
func WriteCombined(ctx context.Context, path string, rows interface{}) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create combined table:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := io.Writer(out.Writer(ctx))
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = gz
	}
	if err = gocsv.Marshal(rows, w); err != nil {
		return err
	}
	log.Debug.Printf("wrote combined table to %s", path)
	return nil
}
