// Package record defines the semi-structured market record types returned
// by the data.gov.in Agmarknet resource. The upstream field set is not
// contractually fixed, so records stay generic key/value containers with
// typed accessors for the fields the engine inspects.
package record

import (
	"time"
)

// ArrivalDateField is the upstream field carrying the record date.
const ArrivalDateField = "arrival_date"

// ArrivalDateLayout is the day/month/year layout used by the API.
const ArrivalDateLayout = "02/01/2006"

// Record is one market price entry as returned by the API: a flat mapping
// of field name to string value.
type Record map[string]string

// Get returns the value for a field, or "" when absent.
func (r Record) Get(field string) string {
	return r[field]
}

// HasArrivalDate reports whether the record carries a non-empty
// arrival_date field.
func (r Record) HasArrivalDate() bool {
	return r[ArrivalDateField] != ""
}

// ArrivalDate parses the record's arrival_date field. Returns an error for
// absent or malformed values.
func (r Record) ArrivalDate() (time.Time, error) {
	return time.Parse(ArrivalDateLayout, r[ArrivalDateField])
}

// Batch is the result of a single page request: the raw records of that
// page plus the server-declared count of records matching the API-side
// filters. Total is -1 when the server did not declare a count. The total
// covers commodity/state/district filters only; the API knows nothing about
// client-side date narrowing.
type Batch struct {
	Records []Record
	Total   int
}
