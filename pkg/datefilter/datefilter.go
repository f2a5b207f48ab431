// Package datefilter applies the client-side date-range narrowing the
// Agmarknet API cannot perform itself. Filtering is pure, stateless and
// order-preserving.
package datefilter

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/record"
)

// Apply returns the subset of records falling inside the inclusive [from,to]
// range. Zero bounds are unbounded. Bounds are expected pre-normalized to
// start-of-day / end-of-day (query.Filter.Normalize).
//
// Records without a usable arrival date follow the upstream policy exactly:
// kept only when no bound was requested at all, dropped otherwise. An
// unparseable date is logged as a warning and then treated like an absent
// one.
func Apply(records []record.Record, from, to time.Time) []record.Record {
	rangeRequested := !from.IsZero() || !to.IsZero()

	kept := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if !rec.HasArrivalDate() {
			if !rangeRequested {
				kept = append(kept, rec)
			}
			continue
		}

		d, err := rec.ArrivalDate()
		if err != nil {
			log.Warn().
				Str("component", "datefilter").
				Str("arrival_date", rec.Get(record.ArrivalDateField)).
				Msg("Could not parse record date")
			if !rangeRequested {
				kept = append(kept, rec)
			}
			continue
		}

		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
