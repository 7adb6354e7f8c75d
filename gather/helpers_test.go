package gather

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/gigmap/gigmap/encoding/famli"
	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"
)

func testKeySet(keys ...string) KeySet {
	ks := newKeySet()
	for _, key := range keys {
		ks.m[key] = struct{}{}
	}
	return ks
}

func writeTestFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTestFileGz(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := gzipBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, f, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func gzipBytes(data string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(data)); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readGz(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func readCombinedRows(t *testing.T, path string) []CombinedRow {
	t.Helper()
	rows := []CombinedRow{}
	if err := gocsv.UnmarshalBytes(readGz(t, path), &rows); err != nil {
		t.Fatal(err)
	}
	return rows
}

func readFilteredRecords(t *testing.T, path string) []famli.Record {
	t.Helper()
	recs := []famli.Record{}
	if err := gocsv.UnmarshalBytes(readGz(t, path), &recs); err != nil {
		t.Fatal(err)
	}
	return recs
}
