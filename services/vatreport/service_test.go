package vatreport

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/testutil"
)

type fakeVat struct {
	info      map[string]hmrcvat.VatInfo
	turnovers map[string]float64
}

func (f *fakeVat) GetVatInfo(ctx context.Context, companyNumber string) hmrcvat.VatInfo {
	if info, ok := f.info[companyNumber]; ok {
		return info
	}
	return hmrcvat.VatInfo{
		VatNumber:        "GB" + companyNumber,
		RegistrationDate: "2020-01-01",
	}
}

func (f *fakeVat) GetCompanyTurnover(ctx context.Context, vatNumber string) (float64, error) {
	turnover, ok := f.turnovers[vatNumber]
	if !ok {
		return 0, fmt.Errorf("vat api unavailable for %s", vatNumber)
	}
	return turnover, nil
}

type memorySink struct {
	rows    []Row
	failure error
}

func (s *memorySink) Write(row Row) error {
	if s.failure != nil {
		return s.failure
	}
	s.rows = append(s.rows, row)
	return nil
}

func reportFixtures() *fakeVat {
	return &fakeVat{
		info: map[string]hmrcvat.VatInfo{
			"111111111": {
				VatNumber:      "GB111111111",
				TradingName:    "ACME TRADING",
				VatStatus:      "active",
				LastReturnDate: "2024-03-31",
			},
		},
		turnovers: map[string]float64{
			"111111111": 2500000.75,
			"222222222": 1000000,
			"333333333": 999999.99,
			// 444444444 deliberately missing, the lookup fails
		},
	}
}

func TestRunReport(t *testing.T) {
	cleanup := testutil.Setup(t, "services/vatreport")
	defer cleanup()

	service := NewService(reportFixtures(), Options{Delay: time.Millisecond})
	sink := &memorySink{}

	stats, err := service.Run(
		context.Background(),
		[]string{"111111111", "222222222", "333333333", "444444444", ""},
		sink,
	)
	require.NoError(t, err)

	require.Equal(t, 4, stats.Processed)
	require.Equal(t, 2, stats.Saved)
	require.Equal(t, 1, stats.BelowThreshold)
	require.Equal(t, 1, stats.Failures)

	expected := []Row{
		{
			Vrn:            "111111111",
			CompanyName:    "ACME TRADING",
			AnnualTurnover: "£2,500,000.75",
			VatStatus:      "active",
			LastReturnDate: "2024-03-31",
		},
		{
			// the test environment returns no trading details
			Vrn:            "222222222",
			CompanyName:    "Unknown",
			AnnualTurnover: "£1,000,000.00",
			VatStatus:      "Unknown",
			LastReturnDate: "Unknown",
		},
	}
	diff := cmp.Diff(expected, sink.rows)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestRunAbortsOnSinkFailure(t *testing.T) {
	cleanup := testutil.Setup(t, "services/vatreport")
	defer cleanup()

	service := NewService(reportFixtures(), Options{Delay: time.Millisecond})
	sink := &memorySink{failure: fmt.Errorf("disk full")}

	_, err := service.Run(context.Background(), []string{"111111111"}, sink)
	require.ErrorContains(t, err, "disk full")
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cleanup := testutil.Setup(t, "services/vatreport")
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewService(reportFixtures(), Options{Delay: time.Millisecond})
	stats, err := service.Run(ctx, []string{"111111111", "222222222"}, &memorySink{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, stats.Saved)
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(Row{
		Vrn:            "111111111",
		CompanyName:    "ACME TRADING",
		AnnualTurnover: "£2,500,000.75",
		VatStatus:      "active",
		LastReturnDate: "2024-03-31",
	}))
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	expected := [][]string{
		{"vrn", "company_name", "annual_turnover", "vat_status", "last_return_date"},
		{"111111111", "ACME TRADING", "£2,500,000.75", "active", "2024-03-31"},
	}
	diff := cmp.Diff(expected, records)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 45, 3, 0, time.UTC)
	require.Equal(t,
		filepath.Join("out", "hmrc_filtered_companies_20240131_154503.csv"),
		OutputPath("out", now))
}

func TestLoadVrns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrns.txt")
	require.NoError(t, os.WriteFile(path, []byte(`# quarterly review list
111111111

  222222222
333333333
`), 0600))

	vrns, err := LoadVrns(path)
	require.NoError(t, err)
	require.Equal(t, []string{"111111111", "222222222", "333333333"}, vrns)
}
