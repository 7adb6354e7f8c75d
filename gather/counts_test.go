package gather

import (
	"errors"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestGatherReadCounts(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	writeTestFile(t, tmpDir, "S1.num_reads.txt", "1000\n")
	writeTestFile(t, tmpDir, "S2.num_reads.txt", "42")
	writeTestFile(t, tmpDir, "ignored.json", "[]")

	counts, err := GatherReadCounts(ctx, tmpDir)
	assert.NoError(t, err)
	expect.EQ(t, counts, ReadCounts{"S1": 1000, "S2": 42})
}

func TestGatherReadCountsUnlabeled(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	// A file that is nothing but the suffix has no specimen to attach the
	// count to.
	writeTestFile(t, tmpDir, ".num_reads.txt", "1000\n")
	_, err := GatherReadCounts(ctx, tmpDir)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want SchemaError", err)
	}
}

func TestGatherReadCountsMalformed(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	writeTestFile(t, tmpDir, "S1.num_reads.txt", "not a number\n")
	_, err := GatherReadCounts(ctx, tmpDir)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want SchemaError", err)
	}
}
