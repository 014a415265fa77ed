package eligibility

import (
	"context"
	"testing"

	"leadscout-backend/lib/scrapers/companieshouse"

	"github.com/google/go-cmp/cmp"
)

const (
	testMin = 1_000_000
	testMax = 1_000_000_000
)

func TestParseTurnover(t *testing.T) {
	testCases := []struct {
		name     string
		raw      any
		expected Turnover
	}{
		{
			name:     "currency string",
			raw:      "£1,000,000",
			expected: Turnover{Amount: 1_000_000, Known: true},
		},
		{
			name:     "numeric range prefers upper bound",
			raw:      "1000000-5000000",
			expected: Turnover{Amount: 5_000_000, Known: true},
		},
		{
			name:     "range with unparseable upper falls back to lower",
			raw:      "2500000-unknown",
			expected: Turnover{Amount: 2_500_000, Known: true},
		},
		{
			name:     "band label over 5m",
			raw:      "over 5m",
			expected: Turnover{Amount: 10_000_000, Known: true},
		},
		{
			name:     "band label 1m-5m",
			raw:      "1m-5m",
			expected: Turnover{Amount: 5_000_000, Known: true},
		},
		{
			name:     "band label 500k-1m",
			raw:      "500k-1m",
			expected: Turnover{Amount: 1_000_000, Known: true},
		},
		{
			name: "band label under 1m stays below the eligibility floor",
			raw:  "under 1m",
			// the parser keeps it, the engine is what disqualifies it
			expected: Turnover{Amount: 500_000, Known: true},
		},
		{
			name:     "band label over 100m",
			raw:      "Over 100M",
			expected: Turnover{Amount: 250_000_000, Known: true},
		},
		{
			name:     "suffix shorthand",
			raw:      "2.5m",
			expected: Turnover{Amount: 2_500_000, Known: true},
		},
		{
			name:     "suffix below minimum is rejected outright",
			raw:      "0.5m",
			expected: Turnover{},
		},
		{
			name:     "suffix above maximum is rejected outright",
			raw:      "1.2b",
			expected: Turnover{},
		},
		{
			name:     "raw number skips the bounds check",
			raw:      float64(250_000),
			expected: Turnover{Amount: 250_000, Known: true},
		},
		{
			name:     "raw integer",
			raw:      1_850_000,
			expected: Turnover{Amount: 1_850_000, Known: true},
		},
		{
			name:     "numeric range skips the bounds check",
			raw:      "5000000000-9000000000",
			expected: Turnover{Amount: 9_000_000_000, Known: true},
		},
		{
			name:     "plain string inside bounds",
			raw:      "1850000",
			expected: Turnover{Amount: 1_850_000, Known: true},
		},
		{
			name:     "plain string below minimum",
			raw:      "999999",
			expected: Turnover{},
		},
		{
			name:     "negative number",
			raw:      float64(-100),
			expected: Turnover{},
		},
		{
			name:     "negative string",
			raw:      "-500000",
			expected: Turnover{},
		},
		{
			name:     "free text",
			raw:      "not disclosed",
			expected: Turnover{},
		},
		{
			name:     "empty string",
			raw:      "",
			expected: Turnover{},
		},
		{
			name:     "nil value",
			raw:      nil,
			expected: Turnover{},
		},
		{
			name:     "unsupported type",
			raw:      true,
			expected: Turnover{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := ParseTurnover(test.raw, testMin, testMax)
			diff := cmp.Diff(test.expected, got)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestParseTurnoverBandCap(t *testing.T) {
	got := ParseTurnover("over 100m", testMin, 200_000_000)
	diff := cmp.Diff(Turnover{Amount: 200_000_000, Known: true}, got)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestTurnoverFromFilings(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		filings  []companieshouse.Filing
		expected Turnover
	}{
		{
			name: "first accounts filing wins",
			filings: []companieshouse.Filing{
				{
					Category: "confirmation-statement",
					Data:     map[string]any{"turnover": "£9,999,999"},
				},
				{
					Category: "accounts-with-accounts-type-full",
					Data:     map[string]any{"turnover": "£2,400,000"},
				},
				{
					Category: "accounts",
					Data:     map[string]any{"turnover": "£8,000,000"},
				},
			},
			expected: Turnover{Amount: 2_400_000, Known: true},
		},
		{
			name: "field priority order",
			filings: []companieshouse.Filing{
				{
					Category: "accounts",
					Data: map[string]any{
						"revenue":  "£3,000,000",
						"turnover": "£2,000,000",
					},
				},
			},
			expected: Turnover{Amount: 2_000_000, Known: true},
		},
		{
			name: "unparseable value moves on to the next field",
			filings: []companieshouse.Filing{
				{
					Category: "accounts",
					Data: map[string]any{
						"turnover": "confidential",
						"revenue":  "£3,000,000",
					},
				},
			},
			expected: Turnover{Amount: 3_000_000, Known: true},
		},
		{
			name: "unparseable filing moves on to the next filing",
			filings: []companieshouse.Filing{
				{
					Category: "accounts",
					Data:     map[string]any{"turnover": "confidential"},
				},
				{
					Category: "accounts-with-accounts-type-small",
					Data:     map[string]any{"uk_turnover": float64(4_500_000)},
				},
			},
			expected: Turnover{Amount: 4_500_000, Known: true},
		},
		{
			name: "no accounts filings",
			filings: []companieshouse.Filing{
				{
					Category: "confirmation-statement",
					Data:     map[string]any{},
				},
			},
			expected: Turnover{},
		},
		{
			name:     "empty history",
			filings:  nil,
			expected: Turnover{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := TurnoverFromFilings(ctx, test.filings, testMin, testMax)
			diff := cmp.Diff(test.expected, got)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
