// Package famli reads and writes FAMLI gene abundance results: per-specimen
// JSON arrays of gene-level estimates, conventionally gzip-compressed with a
// ".json.gz" suffix.
package famli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotList is returned when a FAMLI payload is valid JSON but is not an
// array of records.
var ErrNotList = errors.New("FAMLI payload is not a list")

// Record is one gene-level abundance estimate for a specimen.
//
// The field set matches the FAMLI output schema; the csv tags define the
// column layout of the filtered and combined tables downstream.
type Record struct {
	ID       string  `json:"id" csv:"id"`
	Length   int64   `json:"length" csv:"length"`
	Depth    float64 `json:"depth" csv:"depth"`
	Coverage float64 `json:"coverage" csv:"coverage"`
	Std      float64 `json:"std" csv:"std"`
	NReads   int64   `json:"nreads" csv:"nreads"`
}

// Read parses a FAMLI result payload from r. The payload must be a JSON
// array of records; any other shape (including a single top-level object)
// yields an error wrapping ErrNotList.
func Read(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotList, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: found %v", ErrNotList, tok)
	}
	recs := []Record{}
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return recs, nil
}

// Write serializes recs to w as a JSON array, the same shape Read accepts.
func Write(w io.Writer, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(recs)
}
