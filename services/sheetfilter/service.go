// Package sheetfilter filters broker-supplied acquisition workbooks. Each
// workbook sheet lists companies with a turnover band column; rows whose band
// clears the configured policy are kept, annotated with the company's
// eligible directors, and written out as CSV.
package sheetfilter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"leadscout-backend/lib/scrapers/companieshouse"
	"leadscout-backend/lib/timezone"
	"leadscout-backend/services/eligibility"
)

var tracer = otel.Tracer("services/sheetfilter")

// currencyBandRegex matches bands that quote a pound amount outright,
// e.g. "£1,000,000 - £5,000,000".
var currencyBandRegex = regexp.MustCompile(`£\d+(?:,\d+)*`)

// BandPolicy decides which turnover bands survive filtering. Prefixes wins
// when both fields are set.
type BandPolicy struct {
	// Prefixes keeps bands starting with any entry, e.g. "J:". Broker sheets
	// band turnover under letters, with £1M+ starting at a sheet-specific
	// letter.
	Prefixes []string `json:"prefixes"`
	// Currency keeps bands that quote a pound amount instead of a letter.
	Currency bool `json:"currency"`
}

func (p BandPolicy) Keep(band string) bool {
	band = strings.TrimSpace(band)
	if band == "" {
		return false
	}
	if len(p.Prefixes) > 0 {
		for _, prefix := range p.Prefixes {
			if strings.HasPrefix(band, prefix) {
				return true
			}
		}
		return false
	}
	if p.Currency {
		return currencyBandRegex.MatchString(band)
	}
	return false
}

// BandRange builds a prefix allowlist for lettered bands, BandRange('J', 'V')
// keeps "J:" through "V:".
func BandRange(from, to byte) []string {
	var prefixes []string
	for letter := from; letter <= to; letter++ {
		prefixes = append(prefixes, string(letter)+":")
	}
	return prefixes
}

type Options struct {
	// Sheet is the worksheet to read. Empty means the first sheet in the
	// workbook.
	Sheet string `json:"sheet"`
	// CompanyColumn holds the company name with the registration number in
	// brackets, e.g. "ACME LIMITED (01234567)".
	CompanyColumn string     `json:"company_column"`
	BandColumn    string     `json:"band_column"`
	Policy        BandPolicy `json:"policy"`
	MinAge        int        `json:"min_age"`
}

func DefaultOptions() Options {
	return Options{
		CompanyColumn: "Company Name",
		BandColumn:    "Turnover Banding",
		Policy:        BandPolicy{Prefixes: BandRange('J', 'V')},
		MinAge:        50,
	}
}

// DirectorSource lists a company's officers. *companieshouse.Client
// implements it.
type DirectorSource interface {
	GetOfficers(ctx context.Context, companyNumber string) ([]companieshouse.Officer, error)
}

type Service struct {
	registry DirectorSource
	opts     Options
}

func NewService(registry DirectorSource, opts Options) Service {
	defaults := DefaultOptions()
	if opts.CompanyColumn == "" {
		opts.CompanyColumn = defaults.CompanyColumn
	}
	if opts.BandColumn == "" {
		opts.BandColumn = defaults.BandColumn
	}
	if len(opts.Policy.Prefixes) == 0 && !opts.Policy.Currency {
		opts.Policy = defaults.Policy
	}
	if opts.MinAge <= 0 {
		opts.MinAge = defaults.MinAge
	}
	return Service{registry: registry, opts: opts}
}

type Stats struct {
	Rows            int
	Kept            int
	NoCompanyNumber int
	LookupFailures  int
}

const (
	directorsColumn  = "Filtered Directors"
	noCompanyNumber  = "No company number found"
	lookupFailedCell = "Error retrieving directors"
)

// Filter reads the workbook, keeps rows whose turnover band passes the
// policy, annotates each kept row with the company's eligible directors, and
// writes the surviving rows as CSV with every original column preserved.
func (s Service) Filter(ctx context.Context, workbookPath, outputPath string) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Filter")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "workbook",
		Value: attribute.StringValue(workbookPath),
	})

	var stats Stats

	workbook, err := excelize.OpenFile(workbookPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open workbook")
		return stats, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheet := s.opts.Sheet
	if sheet == "" {
		sheets := workbook.GetSheetList()
		if len(sheets) == 0 {
			return stats, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := workbook.GetRows(sheet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read sheet")
		return stats, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return stats, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := rows[0]
	companyIdx := columnIndex(header, s.opts.CompanyColumn)
	if companyIdx < 0 {
		return stats, fmt.Errorf("sheet %q has no %q column", sheet, s.opts.CompanyColumn)
	}
	bandIdx := columnIndex(header, s.opts.BandColumn)
	if bandIdx < 0 {
		return stats, fmt.Errorf("sheet %q has no %q column", sheet, s.opts.BandColumn)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return stats, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	outHeader := append(append([]string{}, header...), directorsColumn)
	if err := writer.Write(outHeader); err != nil {
		return stats, err
	}

	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "filter cancelled")
			return stats, err
		}
		stats.Rows++

		if !s.opts.Policy.Keep(cell(row, bandIdx)) {
			continue
		}
		stats.Kept++

		record := make([]string, len(header)+1)
		for i := range header {
			record[i] = cell(row, i)
		}
		record[len(header)] = s.directorsCell(ctx, cell(row, companyIdx), &stats)

		if err := writer.Write(record); err != nil {
			return stats, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, err
	}

	slog.InfoContext(ctx, "sheet filtered",
		"sheet", sheet, "rows", stats.Rows, "kept", stats.Kept)
	return stats, nil
}

// directorsCell resolves the directors annotation for one row. Rows without a
// bracketed registration number and rows whose officer lookup fails keep
// their place in the output with an explanatory cell.
func (s Service) directorsCell(ctx context.Context, companyName string, stats *Stats) string {
	companyNumber := companieshouse.ExtractCompanyNumber(companyName)
	if companyNumber == "" {
		stats.NoCompanyNumber++
		return noCompanyNumber
	}

	officers, err := s.registry.GetOfficers(ctx, companyNumber)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch officers",
			"company", companyName, "err", err)
		stats.LookupFailures++
		return lookupFailedCell
	}

	directors := eligibility.EligibleDirectors(officers, s.opts.MinAge, timezone.Now())
	names := make([]string, len(directors))
	for i, director := range directors {
		names[i] = director.Name
	}
	return strings.Join(names, "; ")
}

func columnIndex(header []string, name string) int {
	for i, column := range header {
		if strings.EqualFold(strings.TrimSpace(column), name) {
			return i
		}
	}
	return -1
}

// cell guards against the ragged rows excelize returns, trailing empty cells
// are trimmed from each row.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
