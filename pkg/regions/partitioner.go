package regions

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/pagination"
	"github.com/agritrack/agmarknet-client/pkg/query"
	"github.com/agritrack/agmarknet-client/pkg/record"
)

// Prometheus metrics for partitioned fetch runs.
var (
	regionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mandi_region_runs_total",
		Help: "Per-region pagination runs by terminal state",
	}, []string{"state"})

	regionRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mandi_region_records_total",
		Help: "Records gathered across all region partitions",
	})
)

// Runner executes one full pagination run for a filter. Satisfied by
// *pagination.Driver.
type Runner interface {
	Run(ctx context.Context, f query.Filter) pagination.Result
}

// Config holds partitioner configuration.
type Config struct {
	// MaxConcurrency is the number of regions fetched in parallel.
	// 1 (the default) runs regions strictly in sequence.
	MaxConcurrency int

	// Regions overrides the partition enumeration, mainly for tests.
	// Defaults to Names().
	Regions []string
}

// DefaultConfig returns a sequential-run configuration over the full
// region enumeration.
func DefaultConfig() Config {
	return Config{MaxConcurrency: 1}
}

// Result is the combined outcome of a partitioned fetch.
type Result struct {
	// Records from every region, concatenated in enumeration order.
	Records []record.Record

	// Completed counts regions whose run finished cleanly.
	Completed int

	// Failed counts regions whose run stopped early; their partial
	// records are still present in Records.
	Failed int
}

// Partitioner fans one broad query out across the region enumeration and
// merges the per-region results deterministically.
type Partitioner struct {
	runner  Runner
	config  Config
	regions []string
	logger  zerolog.Logger
}

// New creates a partitioner on top of a pagination runner.
func New(runner Runner, cfg Config) *Partitioner {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	regions := cfg.Regions
	if regions == nil {
		regions = Names()
	}

	return &Partitioner{
		runner:  runner,
		config:  cfg,
		regions: regions,
		logger:  log.With().Str("component", "partitioner").Logger(),
	}
}

// FetchAll runs one pagination driver per region with that region bound as
// the state filter, and concatenates results in enumeration order
// regardless of completion order. A failed region is logged and skipped
// over, never aborting the remaining regions. On cancellation the
// partitioner stops launching new regions and returns everything gathered
// by completed and in-flight runs.
func (p *Partitioner) FetchAll(ctx context.Context, f query.Filter) Result {
	start := time.Now()
	p.logger.Info().
		Int("regions", len(p.regions)).
		Int("concurrency", p.config.MaxConcurrency).
		Str("filter", f.String()).
		Msg("Starting partitioned fetch")

	perRegion := make([]pagination.Result, len(p.regions))

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range p.regions {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < p.config.MaxConcurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perRegion[i] = p.fetchRegion(ctx, f, p.regions[i])
			}
		}()
	}
	wg.Wait()

	var out Result
	for _, res := range perRegion {
		out.Records = append(out.Records, res.Records...)
		switch res.State {
		case pagination.StateDone:
			out.Completed++
		case pagination.StateFailed:
			out.Failed++
		}
	}
	regionRecordsTotal.Add(float64(len(out.Records)))

	p.logger.Info().
		Int("completed", out.Completed).
		Int("failed", out.Failed).
		Int("records", len(out.Records)).
		Dur("duration", time.Since(start)).
		Msg("Partitioned fetch complete")

	return out
}

// fetchRegion runs one region's driver with the region bound as the state
// filter.
func (p *Partitioner) fetchRegion(ctx context.Context, f query.Filter, region string) pagination.Result {
	p.logger.Debug().Str("region", region).Msg("Fetching region")

	res := p.runner.Run(ctx, f.WithState(region))
	regionRunsTotal.WithLabelValues(string(res.State)).Inc()

	if res.State == pagination.StateFailed {
		p.logger.Warn().
			Err(res.Err).
			Str("region", region).
			Int("kept", len(res.Records)).
			Msg("Region fetch failed - keeping partial records and continuing")
	} else {
		p.logger.Info().
			Str("region", region).
			Int("records", len(res.Records)).
			Msg("Region fetch complete")
	}
	return res
}
