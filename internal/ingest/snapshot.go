package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chartkit-backend/internal/model"
	"chartkit-backend/internal/utils"
)

// table is a parsed upload: rows plus the column order keys were first seen in.
type table struct {
	order []string
	rows  []model.Record
}

// columns lists the first row's keys in source order.
func (t *table) columns() []string {
	if len(t.rows) == 0 {
		return []string{}
	}
	first := t.rows[0]
	cols := make([]string, 0, len(first))
	for _, k := range t.order {
		if _, ok := first[k]; ok {
			cols = append(cols, k)
		}
	}
	return cols
}

// Snapshot is a normalized dataset read back from storage.
type Snapshot struct {
	Columns []string
	Rows    []model.Record
}

// SnapshotPath derives the normalized snapshot path from the stored upload:
// same directory and base name, ".json" extension.
func SnapshotPath(uploadPath string) string {
	return strings.TrimSuffix(uploadPath, filepath.Ext(uploadPath)) + ".json"
}

// WriteSnapshot stores rows as an indented JSON array, keeping each object's
// keys in column order.
func WriteSnapshot(path string, order []string, rows []model.Record) error {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, rec := range rows {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := writeObject(&compact, order, rec); err != nil {
			return err
		}
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, out.Bytes(), 0o644)
}

func writeObject(buf *bytes.Buffer, order []string, rec model.Record) error {
	keys := make([]string, 0, len(rec))
	known := make(map[string]bool, len(order))
	for _, k := range order {
		known[k] = true
		if _, ok := rec[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range rec {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(rec[k])
		if err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. Numbers decode as
// json.Number so integers survive the round trip.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	snap := &Snapshot{Columns: []string{}}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		rec := model.Record{}
		var keys []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("snapshot %s: expected object key, got %v", path, tok)
			}
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			rec[key] = v
			keys = append(keys, key)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		if len(snap.Rows) == 0 {
			snap.Columns = append(snap.Columns, keys...)
		}
		snap.Rows = append(snap.Rows, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return snap, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("snapshot truncated, expected %q", want)
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("snapshot malformed: expected %q, got %v", want, tok)
	}
	return nil
}
