package gather

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gigmap/gigmap/encoding/famli"
	"github.com/gocarina/gocsv"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// FilteredTable is the output of one specimen filter unit: the specimen's
// abundance records whose gene ID is in the key set, in input order.
type FilteredTable struct {
	Specimen string
	Records  []famli.Record
	// RowsIn is the number of records in the input artifact, before
	// filtering.
	RowsIn int
}

// FilterSpecimen runs one specimen filter unit: it reads the abundance
// artifact at path and retains the records whose gene ID is a member of
// keys. The artifact must carry the AbundanceSuffix and deserialize to a
// list of records (SchemaError otherwise); an empty key set is an
// IntegrityError since it means the upstream reference table was empty or
// corrupt.
//
// When no records survive, FilterSpecimen returns (nil, nil): the skip is
// logged but produces neither an artifact nor an error. Otherwise, when
// opts.FilteredDir is set, the surviving table is also written to
// <FilteredDir>/<specimen>.csv.gz.
//
// Units share only the read-only key set, so any number of them may run
// concurrently; a unit's failure carries no state into its siblings.
func FilterSpecimen(ctx context.Context, keys KeySet, path string, opts Opts) (*FilteredTable, error) {
	if !strings.HasSuffix(filepath.Base(path), AbundanceSuffix) {
		return nil, schemaErrorf(path, "abundance artifact must end in %q", AbundanceSuffix)
	}
	specimen, _ := SpecimenLabel(path)
	if keys.Len() == 0 {
		return nil, integrityErrorf(path, "gene key set has no unique values")
	}

	recs, err := readAbundance(ctx, path)
	if err != nil {
		return nil, err
	}
	var kept []famli.Record
	for _, rec := range recs {
		if keys.Contains(rec.ID) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		// Expected outcome, not a failure: the specimen simply has no
		// overlap with the key set.
		log.Printf("%s: 0 of %d records overlap the gene key set, skipping", specimen, len(recs))
		return nil, nil
	}
	log.Printf("%s: retained %d of %d records", specimen, len(kept), len(recs))
	tbl := &FilteredTable{Specimen: specimen, Records: kept, RowsIn: len(recs)}
	if opts.FilteredDir != "" {
		if err := writeFiltered(ctx, tbl, opts.FilteredDir); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func readAbundance(ctx context.Context, path string) (recs []famli.Record, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open abundance artifact:", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	r, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()
	recs, err = famli.Read(r)
	if err != nil {
		return nil, schemaErrorf(path, "%v", err)
	}
	return recs, nil
}

// writeFiltered materializes tbl as <dir>/<specimen>.csv.gz. The record
// order is the input order and the writer sets no timestamps, so repeated
// runs on the same input produce byte-identical artifacts.
func writeFiltered(ctx context.Context, tbl *FilteredTable, dir string) (err error) {
	path := filepath.Join(dir, tbl.Specimen+FilteredSuffix)
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create filtered artifact:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	gz := gzip.NewWriter(out.Writer(ctx))
	defer func() {
		if e := gz.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return gocsv.Marshal(&tbl.Records, gz)
}
