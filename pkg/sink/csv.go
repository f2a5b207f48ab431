// Package sink serializes accumulated market records to a tabular file.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/record"
)

// ErrNoRecords signals an empty result set. No file is created; callers use
// this to decide whether to invoke the fallback extractor.
var ErrNoRecords = errors.New("no records to save")

// canonicalColumns is the preferred header order for the well-known
// Agmarknet fields. Fields outside this list sort alphabetically after it.
var canonicalColumns = []string{
	"state",
	"district",
	"market",
	"commodity",
	"variety",
	"grade",
	"arrival_date",
	"min_price",
	"max_price",
	"modal_price",
}

// WriteCSV writes one row per record to the given path, with a header built
// from the union of field names across all records: well-known columns
// first in canonical order, any remaining fields alphabetically. Fields
// absent from a record render as empty cells.
func WriteCSV(records []record.Record, path string) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	header := fieldUnion(records)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range records {
		for i, field := range header {
			row[i] = rec.Get(field)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	log.Info().
		Str("component", "sink").
		Str("path", path).
		Int("records", len(records)).
		Int("columns", len(header)).
		Msg("Saved records")

	return nil
}

// fieldUnion collects every field name appearing in the records into a
// deterministic header order.
func fieldUnion(records []record.Record) []string {
	present := make(map[string]bool)
	for _, rec := range records {
		for field := range rec {
			present[field] = true
		}
	}

	fields := make([]string, 0, len(present))
	for _, field := range canonicalColumns {
		if present[field] {
			fields = append(fields, field)
			delete(present, field)
		}
	}

	rest := make([]string, 0, len(present))
	for field := range present {
		rest = append(rest, field)
	}
	sort.Strings(rest)

	return append(fields, rest...)
}
