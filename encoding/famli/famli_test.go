package famli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/testutil/h"
)

const payload = `[
  {"id": "geneA", "length": 900, "depth": 3.5, "coverage": 0.91, "std": 1.2, "nreads": 55},
  {"id": "geneB", "length": 1200, "depth": 0.8, "coverage": 0.40, "std": 0.3, "nreads": 12}
]`

func TestRead(t *testing.T) {
	recs, err := Read(strings.NewReader(payload))
	expect.NoError(t, err)
	expect.That(t, recs, h.ElementsAre(
		Record{ID: "geneA", Length: 900, Depth: 3.5, Coverage: 0.91, Std: 1.2, NReads: 55},
		Record{ID: "geneB", Length: 1200, Depth: 0.8, Coverage: 0.40, Std: 0.3, NReads: 12},
	))
}

func TestReadEmptyList(t *testing.T) {
	recs, err := Read(strings.NewReader("[]"))
	expect.NoError(t, err)
	expect.EQ(t, len(recs), 0)
}

func TestReadNotList(t *testing.T) {
	for _, s := range []string{
		`{"id": "geneA", "nreads": 5}`,
		`"geneA"`,
		`42`,
		``,
		`not json`,
	} {
		_, err := Read(strings.NewReader(s))
		if !errors.Is(err, ErrNotList) {
			t.Errorf("Read(%q): got %v, want ErrNotList", s, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	recs, err := Read(strings.NewReader(payload))
	expect.NoError(t, err)
	var buf bytes.Buffer
	expect.NoError(t, Write(&buf, recs))
	again, err := Read(&buf)
	expect.NoError(t, err)
	expect.EQ(t, again, recs)
}
