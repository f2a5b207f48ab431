// Package webtable is the last-resort collaborator: when the API fetch path
// yields zero records, it scrapes an HTML-rendered report table from the
// Agmarknet website instead.
package webtable

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/record"
)

// DefaultReportURL is the date-wise commodity report page.
const DefaultReportURL = "https://agmarknet.gov.in/PriceAndArrivals/DatewiseCommodityReport.aspx"

// Extractor scrapes the largest table from an HTML report page.
type Extractor struct {
	url    string
	logger zerolog.Logger
}

// New creates an extractor for the given report URL. An empty URL uses
// DefaultReportURL.
func New(url string) *Extractor {
	if url == "" {
		url = DefaultReportURL
	}
	return &Extractor{
		url:    url,
		logger: log.With().Str("component", "webtable").Logger(),
	}
}

// Extract loads the report page, picks the table with the most rows, and
// converts it to records using the table's first row as field names. An
// empty result (no table, or a header-only table) returns zero records and
// no error; the caller reads the count as the populated-vs-empty signal.
func (e *Extractor) Extract(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Info().Str("url", e.url).Msg("Scraping report table")

	var (
		best     *goquery.Selection
		bestRows int
		visitErr error
	)

	c := colly.NewCollector(
		colly.UserAgent("agmarknet-client/0.1.0"),
	)
	c.OnHTML("table", func(el *colly.HTMLElement) {
		rows := el.DOM.Find("tr").Length()
		if rows > bestRows {
			best = el.DOM
			bestRows = rows
		}
	})
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(e.url); err != nil {
		return nil, fmt.Errorf("visit %s: %w", e.url, err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("scrape %s: %w", e.url, visitErr)
	}
	if best == nil {
		e.logger.Warn().Str("url", e.url).Msg("No table found in page content")
		return nil, nil
	}

	records := tableToRecords(best)
	e.logger.Info().
		Int("rows", bestRows).
		Int("records", len(records)).
		Msg("Table extracted")

	return records, nil
}

// tableToRecords maps a table's data rows onto its first row's cell texts.
func tableToRecords(table *goquery.Selection) []record.Record {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil
	}

	var header []string
	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		header = append(header, strings.TrimSpace(cell.Text()))
	})
	if len(header) == 0 {
		return nil
	}

	var records []record.Record
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		rec := make(record.Record, len(header))
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < len(header) && header[i] != "" {
				rec[header[i]] = strings.TrimSpace(cell.Text())
			}
		})
		if len(rec) > 0 {
			records = append(records, rec)
		}
	})
	return records
}
