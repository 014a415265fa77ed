package vatreport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/timezone"
)

const unknown = "Unknown"

// Row is one line of the VAT turnover report. The test VAT environment never
// returns trading details, so most fields read "Unknown" there.
type Row struct {
	Vrn            string
	CompanyName    string
	AnnualTurnover string
	VatStatus      string
	LastReturnDate string
}

func newRow(vrn string, info hmrcvat.VatInfo, turnover float64) Row {
	return Row{
		Vrn:            vrn,
		CompanyName:    orUnknown(info.TradingName),
		AnnualTurnover: "£" + humanize.FormatFloat("#,###.##", turnover),
		VatStatus:      orUnknown(info.VatStatus),
		LastReturnDate: orUnknown(info.LastReturnDate),
	}
}

func orUnknown(value string) string {
	if value == "" {
		return unknown
	}
	return value
}

type RowSink interface {
	Write(row Row) error
}

var csvHeader = []string{
	"vrn",
	"company_name",
	"annual_turnover",
	"vat_status",
	"last_return_date",
}

type CSVSink struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return nil, err
	}
	return &CSVSink{path: path, file: file, writer: writer}, nil
}

func (s *CSVSink) Write(row Row) error {
	record := []string{
		row.Vrn,
		row.CompanyName,
		row.AnnualTurnover,
		row.VatStatus,
		row.LastReturnDate,
	}
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVSink) Close() error {
	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *CSVSink) Path() string {
	return s.path
}

// OutputPath names a report hmrc_filtered_companies_<yyyymmdd_hhmmss>.csv
// under dir.
func OutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, "hmrc_filtered_companies_"+timezone.Timestamp(now)+".csv")
}

// LoadVrns reads one VAT registration number per line, skipping blank lines
// and # comments.
func LoadVrns(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var vrns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		vrns = append(vrns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vrns, nil
}
