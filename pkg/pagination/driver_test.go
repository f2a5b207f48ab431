package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agritrack/agmarknet-client/pkg/query"
	"github.com/agritrack/agmarknet-client/pkg/record"
)

// fakeFetcher serves canned pages carved from a fixed record set, mimicking
// the API's offset/limit/total behavior.
type fakeFetcher struct {
	records  []record.Record
	total    int // value reported in each batch; -1 for no declared total
	pageSize int

	requests []int // offsets seen
	failAt   int   // fail the Nth request (1-based); 0 disables
	failErr  error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, _ query.Filter, offset int) (record.Batch, error) {
	f.requests = append(f.requests, offset)
	if f.failAt > 0 && len(f.requests) == f.failAt {
		return record.Batch{}, f.failErr
	}

	end := offset + f.pageSize
	if offset > len(f.records) {
		return record.Batch{Records: nil, Total: f.total}, nil
	}
	if end > len(f.records) {
		end = len(f.records)
	}
	return record.Batch{Records: f.records[offset:end], Total: f.total}, nil
}

func (f *fakeFetcher) PageSize() int {
	return f.pageSize
}

func datedRecords(n int, date string) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record{
			"arrival_date": date,
			"commodity":    "Wheat",
			"serial":       fmt.Sprintf("%d", i),
		}
	}
	return out
}

func TestRun_ExactPageCount(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{name: "even split", total: 100, pageSize: 50, wantPages: 2},
		{name: "ragged last page", total: 120, pageSize: 50, wantPages: 3},
		{name: "single page", total: 30, pageSize: 50, wantPages: 1},
		{name: "exact single page", total: 50, pageSize: 50, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{
				records:  datedRecords(tt.total, "01/01/2024"),
				total:    tt.total,
				pageSize: tt.pageSize,
			}
			res := NewDriver(fetcher).Run(context.Background(), query.Filter{})

			if res.State != StateDone {
				t.Fatalf("State = %s, want done (err: %v)", res.State, res.Err)
			}
			if res.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", res.Pages, tt.wantPages)
			}
			if len(fetcher.requests) != tt.wantPages {
				t.Errorf("Fetcher saw %d requests, want %d (no over-fetch)", len(fetcher.requests), tt.wantPages)
			}
			if len(res.Records) != tt.total {
				t.Errorf("Records = %d, want %d", len(res.Records), tt.total)
			}
			if res.RawFetched != tt.total {
				t.Errorf("RawFetched = %d, want %d", res.RawFetched, tt.total)
			}
		})
	}
}

func TestRun_OffsetsAdvanceByPageSize(t *testing.T) {
	fetcher := &fakeFetcher{
		records:  datedRecords(120, "01/01/2024"),
		total:    120,
		pageSize: 50,
	}
	NewDriver(fetcher).Run(context.Background(), query.Filter{})

	want := []int{0, 50, 100}
	if len(fetcher.requests) != len(want) {
		t.Fatalf("Requests = %v, want offsets %v", fetcher.requests, want)
	}
	for i, offset := range want {
		if fetcher.requests[i] != offset {
			t.Errorf("Request %d at offset %d, want %d", i, fetcher.requests[i], offset)
		}
	}
}

func TestRun_EmptyPageShortCircuits(t *testing.T) {
	// Declared total far beyond what the server actually returns.
	fetcher := &fakeFetcher{
		records:  nil,
		total:    9999,
		pageSize: 50,
	}
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{})

	if res.State != StateDone {
		t.Fatalf("State = %s, want done", res.State)
	}
	if res.Pages != 1 {
		t.Errorf("Pages = %d, want 1 (empty page must stop immediately)", res.Pages)
	}
	if len(res.Records) != 0 {
		t.Errorf("Records = %d, want 0", len(res.Records))
	}
}

func TestRun_NoDeclaredTotalStopsOnEmptyPage(t *testing.T) {
	fetcher := &fakeFetcher{
		records:  datedRecords(75, "01/01/2024"),
		total:    -1,
		pageSize: 50,
	}
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{})

	if res.State != StateDone {
		t.Fatalf("State = %s, want done", res.State)
	}
	// 75 records without a total: full page, short page, then the driver
	// keeps going until an empty page arrives.
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if len(res.Records) != 75 {
		t.Errorf("Records = %d, want 75", len(res.Records))
	}
}

func TestRun_TerminationUsesRawCountNotKept(t *testing.T) {
	// Two pages of 50; every record is outside the requested range. The
	// driver must still fetch both pages: the server total ignores dates.
	fetcher := &fakeFetcher{
		records:  datedRecords(100, "01/06/2023"),
		total:    100,
		pageSize: 50,
	}
	from, _ := query.ParseDate("01/01/2024")
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{From: from})

	if res.State != StateDone {
		t.Fatalf("State = %s, want done", res.State)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2 (discarded pages must not stop the run)", res.Pages)
	}
	if len(res.Records) != 0 {
		t.Errorf("Records = %d, want 0 after date filtering", len(res.Records))
	}
	if res.RawFetched != 100 {
		t.Errorf("RawFetched = %d, want 100", res.RawFetched)
	}
}

func TestRun_SingleDayScenario(t *testing.T) {
	// One page of 50 raw records with total=50; 10 dated on the requested
	// day, the rest elsewhere.
	records := append(datedRecords(10, "01/01/2024"), datedRecords(40, "15/02/2024")...)
	fetcher := &fakeFetcher{
		records:  records,
		total:    50,
		pageSize: 1000,
	}

	day, _ := query.ParseDate("01/01/2024")
	f := query.Filter{State: "Punjab", From: day, To: day}
	res := NewDriver(fetcher).Run(context.Background(), f)

	if res.State != StateDone {
		t.Fatalf("State = %s, want done", res.State)
	}
	if len(res.Records) != 10 {
		t.Errorf("Records = %d, want exactly 10", len(res.Records))
	}
	if res.Pages != 1 {
		t.Errorf("Pages = %d, want exactly 1", res.Pages)
	}
}

func TestRun_MidRunFailureKeepsAccumulated(t *testing.T) {
	cause := errors.New("connection reset")
	fetcher := &fakeFetcher{
		records:  datedRecords(150, "01/01/2024"),
		total:    150,
		pageSize: 50,
		failAt:   3,
		failErr:  cause,
	}
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{})

	if res.State != StateFailed {
		t.Fatalf("State = %s, want failed", res.State)
	}
	if !errors.Is(res.Err, cause) {
		t.Errorf("Err = %v, want the fetch cause", res.Err)
	}
	if len(res.Records) != 100 {
		t.Errorf("Records = %d, want exactly the 100 from the 2 successful pages", len(res.Records))
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2 successful pages counted", res.Pages)
	}
}

func TestRun_FirstPageFailureYieldsEmptyPartial(t *testing.T) {
	cause := errors.New("no route to host")
	fetcher := &fakeFetcher{
		records:  datedRecords(50, "01/01/2024"),
		total:    50,
		pageSize: 50,
		failAt:   1,
		failErr:  cause,
	}
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{})

	if res.State != StateFailed {
		t.Fatalf("State = %s, want failed", res.State)
	}
	if len(res.Records) != 0 {
		t.Errorf("Records = %d, want 0", len(res.Records))
	}
}

func TestRun_CancellationBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := &cancellingFetcher{
		inner: &fakeFetcher{
			records:  datedRecords(200, "01/01/2024"),
			total:    200,
			pageSize: 50,
		},
		cancelAfter: 2,
		cancel:      cancel,
	}
	res := NewDriver(fetcher).Run(ctx, query.Filter{})

	if res.State != StateFailed {
		t.Fatalf("State = %s, want failed on cancellation", res.State)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if len(res.Records) != 100 {
		t.Errorf("Records = %d, want the 100 accumulated before cancellation", len(res.Records))
	}
}

// cancellingFetcher cancels the run's context after a fixed number of
// successful pages.
type cancellingFetcher struct {
	inner       *fakeFetcher
	cancelAfter int
	cancel      context.CancelFunc
}

func (c *cancellingFetcher) FetchPage(ctx context.Context, f query.Filter, offset int) (record.Batch, error) {
	batch, err := c.inner.FetchPage(ctx, f, offset)
	if len(c.inner.requests) == c.cancelAfter {
		c.cancel()
	}
	return batch, err
}

func (c *cancellingFetcher) PageSize() int {
	return c.inner.PageSize()
}

func TestRun_NormalizesDateBounds(t *testing.T) {
	// Bounds arrive un-normalized (midday); a record dated that same day
	// must still match.
	fetcher := &fakeFetcher{
		records:  datedRecords(5, "10/03/2024"),
		total:    5,
		pageSize: 50,
	}
	midday := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	res := NewDriver(fetcher).Run(context.Background(), query.Filter{From: midday, To: midday})

	if len(res.Records) != 5 {
		t.Errorf("Records = %d, want 5 (same-day range must be inclusive)", len(res.Records))
	}
}
