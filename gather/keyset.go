package gather

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// KeySet is the set of gene identifiers to retain downstream. It is built
// once per pipeline run and read-only thereafter, so it may be shared
// across filter units without locking.
type KeySet struct {
	m map[string]struct{}
}

// Contains reports whether id is a member of the set.
func (k KeySet) Contains(id string) bool {
	_, ok := k.m[id]
	return ok
}

// Len returns the number of unique keys.
func (k KeySet) Len() int { return len(k.m) }

// Keys returns the keys in sorted order. The underlying set is unordered;
// sorting here keeps every serialization of the set byte-identical.
func (k KeySet) Keys() []string {
	keys := make([]string, 0, len(k.m))
	for key := range k.m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func newKeySet() KeySet {
	return KeySet{m: map[string]struct{}{}}
}

// BuildKeySet reads the reference alignment table at path and returns the
// distinct values of the key column selected by opts.Mode, along with the
// number of data rows read. The table is CSV with a required header row,
// optionally gzip-compressed. A header that does not carry the expected
// key column name at the expected position is a SchemaError.
func BuildKeySet(ctx context.Context, path string, opts Opts) (KeySet, int, error) {
	ks := newKeySet()
	nRows := 0
	err := readKeyColumn(ctx, path, opts, func(key string) {
		nRows++
		ks.m[key] = struct{}{}
	})
	if err != nil {
		return KeySet{}, 0, err
	}
	log.Printf("%s: read %d alignment rows, %d unique %s values", path, nRows, ks.Len(), keyColumnName(opts))
	return ks, nRows, nil
}

// ReadKeySet reads a key set artifact previously written by WriteKeySet (a
// single-column CSV, gzip-compressed when the path says so). Unlike
// BuildKeySet it enforces that the artifact is already deduplicated: a row
// count different from the unique count means the artifact was corrupted
// upstream and is an IntegrityError, as is an artifact with no keys at all.
func ReadKeySet(ctx context.Context, path string, opts Opts) (KeySet, int, error) {
	ks := newKeySet()
	nRows := 0
	err := readKeyColumn(ctx, path, opts, func(key string) {
		nRows++
		ks.m[key] = struct{}{}
	})
	if err != nil {
		return KeySet{}, 0, err
	}
	if nRows != ks.Len() {
		return KeySet{}, 0, integrityErrorf(path, "%d rows but only %d unique keys; key set must be unique", nRows, ks.Len())
	}
	if ks.Len() == 0 {
		return KeySet{}, 0, integrityErrorf(path, "key set is empty")
	}
	log.Printf("%s: read %d unique %s values", path, ks.Len(), keyColumnName(opts))
	return ks, nRows, nil
}

// WriteKeySet materializes ks at path as a single-column CSV whose header
// is the key column name for opts.Mode. A ".gz" path is gzip-compressed.
func WriteKeySet(ctx context.Context, path string, ks KeySet, opts Opts) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create key set artifact:", path)
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
	cw := csv.NewWriter(w)
	if err = cw.Write([]string{keyColumnName(opts)}); err != nil {
		return err
	}
	for _, key := range ks.Keys() {
		if err = cw.Write([]string{key}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func keyColumnName(opts Opts) string {
	_, name := opts.Mode.KeyColumn()
	return name
}

// readKeyColumn streams the key column of the CSV table at path, calling
// emit once per data row. The header is validated before any row is read.
func readKeyColumn(ctx context.Context, path string, opts Opts, emit func(key string)) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open reference table:", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	r, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()

	col, name := opts.Mode.KeyColumn()
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return schemaErrorf(path, "missing header row")
		}
		return schemaErrorf(path, "unreadable header row: %v", err)
	}
	if len(header) <= col {
		return schemaErrorf(path, "header has %d columns, key column %q requires at least %d", len(header), name, col+1)
	}
	if header[col] != name {
		return schemaErrorf(path, "key column header is %q, expected %q", header[col], name)
	}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return schemaErrorf(path, "malformed row: %v", err)
		}
		emit(row[col])
	}
}
