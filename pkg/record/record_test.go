package record

import (
	"testing"
	"time"
)

func TestArrivalDate(t *testing.T) {
	tests := []struct {
		name      string
		record    Record
		want      time.Time
		expectErr bool
	}{
		{
			name:   "valid date",
			record: Record{"arrival_date": "15/03/2024", "commodity": "Wheat"},
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "missing field",
			record:    Record{"commodity": "Wheat"},
			expectErr: true,
		},
		{
			name:      "empty field",
			record:    Record{"arrival_date": ""},
			expectErr: true,
		},
		{
			name:      "wrong format",
			record:    Record{"arrival_date": "2024-03-15"},
			expectErr: true,
		},
		{
			name:      "garbage",
			record:    Record{"arrival_date": "soon"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.record.ArrivalDate()
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected parse error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ArrivalDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasArrivalDate(t *testing.T) {
	if (Record{"arrival_date": "01/01/2024"}).HasArrivalDate() != true {
		t.Error("Expected HasArrivalDate true for populated field")
	}
	if (Record{"arrival_date": ""}).HasArrivalDate() {
		t.Error("Expected HasArrivalDate false for empty field")
	}
	if (Record{}).HasArrivalDate() {
		t.Error("Expected HasArrivalDate false for absent field")
	}
}

func TestGet(t *testing.T) {
	r := Record{"state": "Punjab"}
	if got := r.Get("state"); got != "Punjab" {
		t.Errorf("Get(state) = %q, want %q", got, "Punjab")
	}
	if got := r.Get("district"); got != "" {
		t.Errorf("Get(district) = %q, want empty", got)
	}
}
