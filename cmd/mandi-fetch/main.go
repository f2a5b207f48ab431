// Command mandi-fetch retrieves Agmarknet mandi price records from the
// data.gov.in API with optional commodity/state/district filters and a
// client-side date range, and writes them to a CSV file.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agritrack/agmarknet-client/internal/config"
	"github.com/agritrack/agmarknet-client/pkg/client"
	"github.com/agritrack/agmarknet-client/pkg/logging"
	"github.com/agritrack/agmarknet-client/pkg/pagination"
	"github.com/agritrack/agmarknet-client/pkg/query"
	"github.com/agritrack/agmarknet-client/pkg/ratelimit"
	"github.com/agritrack/agmarknet-client/pkg/record"
	"github.com/agritrack/agmarknet-client/pkg/regions"
	"github.com/agritrack/agmarknet-client/pkg/sink"
	"github.com/agritrack/agmarknet-client/pkg/webtable"
)

// options holds the parsed command line.
type options struct {
	commodity string
	state     string
	district  string
	fromStr   string
	toStr     string
	output    string
	fallback  bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("mandi-fetch", flag.ContinueOnError)
	fs.StringVar(&o.commodity, "commodity", "", "filter by commodity/crop (e.g. 'Wheat', 'Potato')")
	fs.StringVar(&o.state, "state", "", "filter by state (e.g. 'Punjab')")
	fs.StringVar(&o.district, "district", "", "filter by district (e.g. 'Agra')")
	fs.StringVar(&o.fromStr, "from", "", "start date, DD/MM/YYYY")
	fs.StringVar(&o.toStr, "to", "", "end date, DD/MM/YYYY")
	fs.StringVar(&o.output, "output", "mandi_prices_master.csv", "output CSV filename")
	fs.BoolVar(&o.fallback, "fallback", false, "scrape the Agmarknet report page when the API yields no records")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

// buildFilter validates the date arguments and assembles the query filter.
func buildFilter(o options) (query.Filter, error) {
	f := query.Filter{
		Commodity: o.commodity,
		State:     o.state,
		District:  o.district,
	}

	if o.fromStr != "" {
		from, err := query.ParseDate(o.fromStr)
		if err != nil {
			return query.Filter{}, err
		}
		f.From = from
	}
	if o.toStr != "" {
		to, err := query.ParseDate(o.toStr)
		if err != nil {
			return query.Filter{}, err
		}
		f.To = to
	}

	if err := f.Validate(); err != nil {
		return query.Filter{}, err
	}
	return f, nil
}

// fetchRecords runs the fetch engine: a single pagination driver for a
// filtered query, or one driver per region when the query is broad enough
// to exceed the API's per-query result cap.
func fetchRecords(ctx context.Context, cfg config.Config, f query.Filter, logger zerolog.Logger) []record.Record {
	clientCfg := client.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.PageSize = cfg.PageSize
	clientCfg.Limiter = ratelimit.New(cfg.MaxConcurrency, cfg.MinRequestGap)

	mandiClient, err := client.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create API client")
		return nil
	}

	driver := pagination.NewDriver(mandiClient)

	if f.IsBroad() {
		logger.Info().Msg("No API-side filters given - scanning state by state to bypass the per-query cap")
		partitioner := regions.New(driver, regions.Config{MaxConcurrency: cfg.MaxConcurrency})
		res := partitioner.FetchAll(ctx, f)
		if res.Failed > 0 {
			logger.Warn().
				Int("failed_regions", res.Failed).
				Msg("Some regions returned partial data")
		}
		return res.Records
	}

	res := driver.Run(ctx, f)
	if res.State == pagination.StateFailed {
		logger.Warn().Err(res.Err).Msg("Fetch ended early - saving what was gathered")
	}
	return res.Records
}

// promptAPIKey asks for a credential on stdin when the environment has
// none, matching the original tooling's behavior.
func promptAPIKey() string {
	fmt.Fprint(os.Stderr, "Enter your data.gov.in API key: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	}).With().Str("run_id", uuid.NewString()).Logger()

	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	f, err := buildFilter(o)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid arguments")
		os.Exit(2)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = promptAPIKey()
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Cannot fetch without an access credential")
		os.Exit(1)
	}

	// SIGINT stops issuing new requests; everything gathered so far is
	// still saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("filter", f.String()).Str("output", o.output).Msg("Starting fetch")

	records := fetchRecords(ctx, cfg, f, logger)

	if len(records) == 0 && o.fallback {
		logger.Info().Msg("API fetch yielded no records - trying the report page")
		scraped, err := webtable.New("").Extract(context.Background())
		if err != nil {
			logger.Warn().Err(err).Msg("Report page scrape failed")
		}
		records = scraped
	}

	switch err := sink.WriteCSV(records, o.output); {
	case errors.Is(err, sink.ErrNoRecords):
		logger.Info().Msg("No records to save")
	case err != nil:
		logger.Error().Err(err).Msg("Failed to save records")
		os.Exit(1)
	default:
		logger.Info().Int("records", len(records)).Str("output", o.output).Msg("Fetch completed")
	}
}
