package pagination

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/datefilter"
	"github.com/agritrack/agmarknet-client/pkg/query"
	"github.com/agritrack/agmarknet-client/pkg/record"
)

// PageFetcher is the interface the client must implement for single-page
// fetching.
type PageFetcher interface {
	// FetchPage fetches one page at the given offset with the filter's
	// server-expressible fields bound.
	FetchPage(ctx context.Context, f query.Filter, offset int) (record.Batch, error)

	// PageSize returns the records-per-page limit the fetcher requests.
	PageSize() int
}

// State is the terminal state of a pagination run.
type State string

const (
	// StateDone means the full API-side match set was covered.
	StateDone State = "done"

	// StateFailed means a page fetch failed or the run was cancelled;
	// the result still carries everything accumulated before the failure.
	StateFailed State = "failed"
)

// Result is the outcome of one pagination run.
type Result struct {
	// Records kept after client-side date filtering, in fetch order.
	Records []record.Record

	// Pages is the number of page requests issued.
	Pages int

	// RawFetched is the number of raw records processed before date
	// filtering.
	RawFetched int

	// State is the terminal state of the run.
	State State

	// Err is the failure cause when State is StateFailed, nil otherwise.
	Err error
}

// Driver runs the fetch/filter/accumulate loop for a single query.
type Driver struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewDriver creates a pagination driver on top of a page fetcher.
func NewDriver(fetcher PageFetcher) *Driver {
	return &Driver{
		fetcher: fetcher,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// Run fetches pages at increasing offsets until the API-side match set is
// exhausted, filtering each page through the date range. A fetch failure or
// cancellation terminates the loop with whatever accumulated so far; partial
// results are never discarded.
func (d *Driver) Run(ctx context.Context, f query.Filter) Result {
	f = f.Normalize()
	pageSize := d.fetcher.PageSize()
	start := time.Now()

	var res Result
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return d.failed(res, err)
		}

		batch, err := d.fetcher.FetchPage(ctx, f, offset)
		if err != nil {
			return d.failed(res, err)
		}
		res.Pages++
		res.RawFetched += len(batch.Records)

		kept := datefilter.Apply(batch.Records, f.From, f.To)
		res.Records = append(res.Records, kept...)

		d.logger.Debug().
			Int("offset", offset).
			Int("raw", len(batch.Records)).
			Int("kept", len(kept)).
			Int("accumulated", len(res.Records)).
			Msg("Page processed")

		if len(batch.Records) == 0 {
			break
		}
		if batch.Total >= 0 && offset+len(batch.Records) >= batch.Total {
			break
		}

		offset += pageSize
	}

	res.State = StateDone
	d.logger.Info().
		Str("filter", f.String()).
		Int("pages", res.Pages).
		Int("raw_fetched", res.RawFetched).
		Int("kept", len(res.Records)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return res
}

// failed finalizes a run that could not cover the full match set. The
// accumulated records stay in the result.
func (d *Driver) failed(res Result, cause error) Result {
	res.State = StateFailed
	res.Err = cause

	d.logger.Warn().
		Err(cause).
		Int("pages", res.Pages).
		Int("kept", len(res.Records)).
		Msg("Pagination stopped early - returning partial results")

	return res
}
