package leadgen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"leadscout-backend/lib/scrapers/companieshouse"
	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/timezone"
	"leadscout-backend/services/eligibility"
)

// notAvailable fills columns where a source had no qualifying figure or no
// value at all.
const notAvailable = "Not available"

// Lead is one output row, all fields already rendered for the report.
type Lead struct {
	CompanyNumber           string
	CompanyName             string
	CompanyStatus           string
	IncorporationDate       string
	SicCodes                string
	RegisteredOfficeAddress string
	DirectorCount           int
	CompanyType             string
	CompaniesHouseTurnover  string
	HMRCTurnover            string
	LastAccountsDate        string
	Category                string
	VatNumber               string
}

func newLead(
	profile companieshouse.Profile,
	decision eligibility.Decision,
	vatInfo hmrcvat.VatInfo,
	category string,
	criteria eligibility.Criteria,
) Lead {
	return Lead{
		CompanyNumber:           profile.CompanyNumber,
		CompanyName:             profile.CompanyName,
		CompanyStatus:           profile.CompanyStatus,
		IncorporationDate:       profile.DateOfCreation,
		SicCodes:                strings.Join(profile.SicCodes, ", "),
		RegisteredOfficeAddress: profile.RegisteredOfficeAddress.Format(),
		DirectorCount:           len(decision.Directors),
		CompanyType:             profile.Type,
		CompaniesHouseTurnover:  formatTurnover(decision.CompaniesHouse, criteria),
		HMRCTurnover:            formatTurnover(decision.HMRC, criteria),
		LastAccountsDate:        orNotAvailable(profile.Accounts.LastAccounts.MadeUpTo),
		Category:                category,
		VatNumber:               orNotAvailable(vatInfo.VatNumber),
	}
}

// formatTurnover renders a qualifying figure as currency. A figure that was
// parsed but falls outside the criteria still reads "Not available", each
// column only ever shows amounts that held up on their own.
func formatTurnover(t eligibility.Turnover, criteria eligibility.Criteria) string {
	if !eligibility.QualifyingTurnover(t, criteria) {
		return notAvailable
	}
	return "£" + humanize.FormatFloat("#,###.##", t.Amount)
}

func orNotAvailable(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}

// LeadSink receives qualifying companies as they are found.
type LeadSink interface {
	Write(lead Lead) error
}

var csvHeader = []string{
	"company_number",
	"company_name",
	"company_status",
	"incorporation_date",
	"sic_codes",
	"registered_office_address",
	"number_of_active_directors_over_50",
	"company_type",
	"companies_house_turnover",
	"hmrc_turnover",
	"last_accounts_date",
	"category",
	"vat_number",
}

// CSVSink streams leads to a CSV file, flushing after every row so a crashed
// run keeps everything written so far.
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

func (s *CSVSink) Write(lead Lead) error {
	record := []string{
		lead.CompanyNumber,
		lead.CompanyName,
		lead.CompanyStatus,
		lead.IncorporationDate,
		lead.SicCodes,
		lead.RegisteredOfficeAddress,
		strconv.Itoa(lead.DirectorCount),
		lead.CompanyType,
		lead.CompaniesHouseTurnover,
		lead.HMRCTurnover,
		lead.LastAccountsDate,
		lead.Category,
		lead.VatNumber,
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

// OutputPath names a report file the way downstream spreadsheets expect,
// filtered_companies_<yyyymmdd_hhmmss>.csv under dir.
func OutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, "filtered_companies_"+timezone.Timestamp(now)+".csv")
}
