package eligibility

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"leadscout-backend/lib/scrapers/companieshouse"
)

// Turnover is a parsed annual turnover figure. The zero value means
// no usable figure was found.
type Turnover struct {
	Amount float64
	Known  bool
}

func numericTurnover(amount float64) Turnover {
	if amount < 0 {
		return Turnover{}
	}
	return Turnover{Amount: amount, Known: true}
}

func boundedTurnover(amount, minBound, maxBound float64) Turnover {
	if amount < minBound || amount > maxBound {
		return Turnover{}
	}
	return Turnover{Amount: amount, Known: true}
}

type band struct {
	label string
	value float64
}

// banded labels seen in filing data and lead sheets, ordered so that
// labels which contain shorter labels as substrings are checked first
var bandTable = []band{
	{"over 100m", 250_000_000},
	{"over 50m", 100_000_000},
	{"over 10m", 20_000_000},
	{"over 5m", 10_000_000},
	{"over 1m", 2_000_000},
	{"50m-100m", 100_000_000},
	{"10m-50m", 50_000_000},
	{"5m-10m", 10_000_000},
	{"1m-5m", 5_000_000},
	{"500k-1m", 1_000_000},
	{"under 1m", 500_000},
}

var suffixRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?) ?([kmb])$`)

var suffixMultipliers = map[string]float64{
	"k": 1_000,
	"m": 1_000_000,
	"b": 1_000_000_000,
}

// ParseTurnover converts a raw filing value into a canonical figure.
// Raw numbers and explicit numeric ranges are trusted as-is; banded
// labels are capped at maxBound; suffixed shorthand and plain strings
// must land inside [minBound, maxBound] or the result is absent.
func ParseTurnover(raw any, minBound, maxBound float64) Turnover {
	switch v := raw.(type) {
	case float64:
		return numericTurnover(v)
	case int:
		return numericTurnover(float64(v))
	case int64:
		return numericTurnover(float64(v))
	case string:
		return parseTurnoverString(v, minBound, maxBound)
	}
	return Turnover{}
}

func parseTurnoverString(raw string, minBound, maxBound float64) Turnover {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, "£", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	// explicit numeric ranges like "1000000-5000000", preferring the
	// upper bound; labels like "1m-5m" fall through to the band table
	if strings.Contains(cleaned, "-") {
		parts := strings.Split(cleaned, "-")
		if len(parts) == 2 {
			lower, lowerErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			upper, upperErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if lowerErr == nil && upperErr == nil {
				return numericTurnover(upper)
			}
			if lowerErr == nil {
				return numericTurnover(lower)
			}
		}
	}

	for _, b := range bandTable {
		if strings.Contains(cleaned, b.label) {
			return numericTurnover(math.Min(b.value, maxBound))
		}
	}

	if groups := suffixRegex.FindStringSubmatch(cleaned); groups != nil {
		value, err := strconv.ParseFloat(groups[1], 64)
		if err != nil {
			return Turnover{}
		}
		// a suffixed value outside bounds is rejected outright, it
		// does not fall through to plain conversion
		return boundedTurnover(value*suffixMultipliers[groups[2]], minBound, maxBound)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Turnover{}
	}
	return boundedTurnover(value, minBound, maxBound)
}

// accounts filings that carry turnover figures
var accountsCategories = map[string]bool{
	"accounts":                          true,
	"accounts-with-accounts-type-full":  true,
	"accounts-with-accounts-type-small": true,
}

// turnover field names in priority order
var turnoverFields = []string{
	"turnover",
	"revenue",
	"total_turnover",
	"uk_turnover",
}

// TurnoverFromFilings scans filing history in retrieval order and
// returns the first figure that parses out of an accounts filing.
// There is no aggregation across filings.
func TurnoverFromFilings(ctx context.Context, filings []companieshouse.Filing, minBound, maxBound float64) Turnover {
	for _, filing := range filings {
		if !accountsCategories[filing.Category] {
			continue
		}
		for _, field := range turnoverFields {
			raw, ok := filing.Data[field]
			if !ok {
				continue
			}
			t := ParseTurnover(raw, minBound, maxBound)
			if t.Known {
				return t
			}
			slog.WarnContext(
				ctx, "could not parse turnover value",
				"field", field,
				"value", raw,
			)
		}
	}
	return Turnover{}
}
