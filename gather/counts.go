package gather

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// ReadCounts maps a specimen label to the total number of sequenced reads
// for that specimen, gathered from per-specimen <specimen>.num_reads.txt
// files (a single integer line each).
type ReadCounts map[string]int64

// GatherReadCounts reads every read count file under dir. A file whose
// contents do not parse as an integer is a SchemaError.
func GatherReadCounts(ctx context.Context, dir string) (ReadCounts, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+ReadCountSuffix))
	if err != nil {
		return nil, errors.E(err, "list read counts:", dir)
	}
	counts := ReadCounts{}
	for _, path := range paths {
		specimen, ok := SpecimenLabel(path)
		if !ok {
			return nil, schemaErrorf(path, "cannot derive a specimen label")
		}
		n, err := readCount(ctx, path)
		if err != nil {
			return nil, err
		}
		counts[specimen] = n
	}
	log.Printf("%s: read counts for %d specimens", dir, len(counts))
	return counts, nil
}

func readCount(ctx context.Context, path string) (int64, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, errors.E(err, "open read count:", path)
	}
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return 0, errors.E(err, "read count:", path)
	}
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, schemaErrorf(path, "read count is not an integer: %q", line)
	}
	return n, nil
}
