package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agritrack/agmarknet-client/internal/config"
	"github.com/agritrack/agmarknet-client/internal/testutil"
	"github.com/agritrack/agmarknet-client/pkg/query"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{
		"-commodity", "Wheat",
		"-state", "Punjab",
		"-from", "01/01/2024",
		"-to", "31/01/2024",
		"-output", "out.csv",
		"-fallback",
	})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if o.commodity != "Wheat" || o.state != "Punjab" {
		t.Errorf("Filters not parsed: %+v", o)
	}
	if o.output != "out.csv" {
		t.Errorf("output = %q", o.output)
	}
	if !o.fallback {
		t.Error("fallback flag not parsed")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	o, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if o.output != "mandi_prices_master.csv" {
		t.Errorf("Default output = %q", o.output)
	}
	if o.fallback {
		t.Error("fallback must default to off")
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		opts      options
		expectErr bool
	}{
		{
			name: "valid with dates",
			opts: options{commodity: "Wheat", fromStr: "01/01/2024", toStr: "31/01/2024"},
		},
		{
			name: "no dates",
			opts: options{state: "Punjab"},
		},
		{
			name:      "malformed from date",
			opts:      options{fromStr: "2024-01-01"},
			expectErr: true,
		},
		{
			name:      "malformed to date",
			opts:      options{toStr: "someday"},
			expectErr: true,
		},
		{
			name:      "inverted range",
			opts:      options{fromStr: "31/01/2024", toStr: "01/01/2024"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildFilter(tt.opts)
			if tt.expectErr && err == nil {
				t.Error("Expected error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func testConfig(apiURL string) config.Config {
	return config.Config{
		APIKey:         "test-key",
		BaseURL:        apiURL,
		PageSize:       50,
		MaxConcurrency: 2,
	}
}

func TestFetchRecords_FilteredQuery(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetRecords([]testutil.MockRecord{
		testutil.PriceRecord("Punjab", "Wheat", "01/01/2024"),
		testutil.PriceRecord("Punjab", "Wheat", "02/01/2024"),
		testutil.PriceRecord("Kerala", "Coconut", "01/01/2024"),
	})

	f := query.Filter{State: "Punjab"}
	records := fetchRecords(context.Background(), testConfig(mock.URL()), f, zerolog.Nop())

	if len(records) != 2 {
		t.Fatalf("Records = %d, want 2 Punjab records", len(records))
	}
	if mock.Requests() != 1 {
		t.Errorf("API saw %d requests, want 1", mock.Requests())
	}
}

func TestFetchRecords_DateNarrowing(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetRecords([]testutil.MockRecord{
		testutil.PriceRecord("Punjab", "Wheat", "01/01/2024"),
		testutil.PriceRecord("Punjab", "Wheat", "15/02/2024"),
	})

	day, _ := query.ParseDate("01/01/2024")
	f := query.Filter{State: "Punjab", From: day, To: day}
	records := fetchRecords(context.Background(), testConfig(mock.URL()), f, zerolog.Nop())

	if len(records) != 1 {
		t.Fatalf("Records = %d, want 1 after date narrowing", len(records))
	}
	if records[0].Get("arrival_date") != "01/01/2024" {
		t.Errorf("Kept wrong record: %v", records[0])
	}
}

func TestFetchRecords_BroadQueryPartitionsByState(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetRecords([]testutil.MockRecord{
		testutil.PriceRecord("Punjab", "Wheat", "01/01/2024"),
		testutil.PriceRecord("Kerala", "Coconut", "01/01/2024"),
	})

	records := fetchRecords(context.Background(), testConfig(mock.URL()), query.Filter{}, zerolog.Nop())

	if len(records) != 2 {
		t.Fatalf("Records = %d, want 2 across all states", len(records))
	}
	// Kerala precedes Punjab in the region enumeration; order must follow
	// the enumeration, not the canned data.
	if records[0].Get("state") != "Kerala" || records[1].Get("state") != "Punjab" {
		t.Errorf("Region order violated: %v then %v", records[0].Get("state"), records[1].Get("state"))
	}
	// One request per region in the enumeration.
	if mock.Requests() < 30 {
		t.Errorf("API saw %d requests, want one per region", mock.Requests())
	}
}

func TestFetchRecords_BadKeyYieldsNoRecords(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.RejectKey()

	records := fetchRecords(context.Background(), testConfig(mock.URL()), query.Filter{State: "Punjab"}, zerolog.Nop())
	if len(records) != 0 {
		t.Errorf("Records = %d, want 0 for rejected key", len(records))
	}
}

func TestFetchRecords_MidRunFailureKeepsPartial(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	var canned []testutil.MockRecord
	for i := 0; i < 120; i++ {
		canned = append(canned, testutil.PriceRecord("Punjab", "Wheat", "01/01/2024"))
	}
	mock.SetRecords(canned)
	mock.FailFrom(3, 503) // pages 1-2 succeed, page 3 fails

	records := fetchRecords(context.Background(), testConfig(mock.URL()), query.Filter{State: "Punjab"}, zerolog.Nop())

	if len(records) != 100 {
		t.Errorf("Records = %d, want the 100 from the two successful pages", len(records))
	}
}
