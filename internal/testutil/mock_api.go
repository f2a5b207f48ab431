// Package testutil provides a mock data.gov.in API server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockRecord is one canned record served by the mock API.
type MockRecord map[string]string

// MockAPI is a configurable fake of the Agmarknet resource endpoint. It
// implements the real API's offset/limit windowing, commodity/state/district
// filters and the total field, so the full pagination path can be exercised
// against it.
type MockAPI struct {
	server *httptest.Server

	mu       sync.RWMutex
	records  []MockRecord
	failFrom int // fail the Nth and later requests (1-based); 0 disables
	failCode int
	noKeyMsg bool // respond without a records container, as for a bad key

	RequestCount int
	LastQuery    map[string]string
}

// NewMockAPI creates a mock server with no data. Close it when done.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{failCode: http.StatusInternalServerError}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetRecords replaces the canned data set.
func (m *MockAPI) SetRecords(records []MockRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// FailFrom makes the Nth and all later requests fail with the given status.
func (m *MockAPI) FailFrom(n, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFrom = n
	m.failCode = statusCode
}

// RejectKey makes every response omit the records container, mimicking the
// API's behavior for an invalid credential.
func (m *MockAPI) RejectKey() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noKeyMsg = true
}

// Requests returns the number of requests seen so far.
func (m *MockAPI) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.Lock()
	m.RequestCount++
	m.LastQuery = map[string]string{}
	for key := range q {
		m.LastQuery[key] = q.Get(key)
	}
	reqNum := m.RequestCount
	failFrom, failCode, noKey := m.failFrom, m.failCode, m.noKeyMsg
	records := m.records
	m.mu.Unlock()

	if failFrom > 0 && reqNum >= failFrom {
		w.WriteHeader(failCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if noKey || q.Get("api-key") == "" {
		json.NewEncoder(w).Encode(map[string]any{
			"message": "invalid api key",
		})
		return
	}

	matching := filterRecords(records, q.Get("filters[commodity]"), q.Get("filters[state]"), q.Get("filters[district]"))

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	page := []MockRecord{}
	if offset < len(matching) {
		end := offset + limit
		if end > len(matching) {
			end = len(matching)
		}
		page = matching[offset:end]
	}

	json.NewEncoder(w).Encode(map[string]any{
		"records": page,
		"total":   len(matching),
	})
}

// filterRecords applies the API-side filters the way the real resource
// does: exact match per field, empty filter matches everything.
func filterRecords(records []MockRecord, commodity, state, district string) []MockRecord {
	out := make([]MockRecord, 0, len(records))
	for _, rec := range records {
		if commodity != "" && rec["commodity"] != commodity {
			continue
		}
		if state != "" && rec["state"] != state {
			continue
		}
		if district != "" && rec["district"] != district {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// PriceRecord builds a typical Agmarknet record for tests.
func PriceRecord(state, commodity, arrivalDate string) MockRecord {
	return MockRecord{
		"state":        state,
		"district":     "Test District",
		"market":       "Test Market",
		"commodity":    commodity,
		"variety":      "Local",
		"arrival_date": arrivalDate,
		"modal_price":  "2000",
	}
}
