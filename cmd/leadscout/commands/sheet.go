package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"leadscout-backend/lib/util/serviceutil"
	"leadscout-backend/services/sheetfilter"
)

var (
	sheetName       *string
	sheetCompanyCol *string
	sheetBandCol    *string
	sheetBands      *string
	sheetOut        *string
)

func init() {
	sheetName = sheetCmd.Flags().String("sheet", "", "Worksheet to read, defaults to the first sheet.")
	sheetCompanyCol = sheetCmd.Flags().String("company-column", "", `Column holding "NAME (NUMBER)" values.`)
	sheetBandCol = sheetCmd.Flags().String("band-column", "", "Column holding the turnover band.")
	sheetBands = sheetCmd.Flags().String("bands", "J-V", `Bands to keep: a letter range like "J-V", or "currency" for sheets quoting pound amounts.`)
	sheetOut = sheetCmd.Flags().String("out", "filtered_sheet.csv", "Path of the output csv.")
	rootCmd.AddCommand(sheetCmd)
}

func parseBandPolicy(value string) (sheetfilter.BandPolicy, error) {
	if strings.EqualFold(value, "currency") {
		return sheetfilter.BandPolicy{Currency: true}, nil
	}
	parts := strings.SplitN(strings.ToUpper(value), "-", 2)
	if len(parts) == 2 && len(parts[0]) == 1 && len(parts[1]) == 1 && parts[0][0] <= parts[1][0] {
		return sheetfilter.BandPolicy{
			Prefixes: sheetfilter.BandRange(parts[0][0], parts[1][0]),
		}, nil
	}
	return sheetfilter.BandPolicy{}, fmt.Errorf(
		`invalid band policy %q, expected "currency" or a letter range like "J-V"`, value)
}

var sheetCmd = &cobra.Command{
	Use:   "sheet <path/to/workbook.xlsx>",
	Short: "Filters an acquisition workbook by turnover band and annotates eligible directors.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		initTelemetry(ctx)

		policy, err := parseBandPolicy(*sheetBands)
		if err != nil {
			serviceutil.Fatal("parse --bands", err)
		}

		registry := newCompaniesHouseClient()
		service := sheetfilter.NewService(registry, sheetfilter.Options{
			Sheet:         *sheetName,
			CompanyColumn: *sheetCompanyCol,
			BandColumn:    *sheetBandCol,
			Policy:        policy,
		})

		stats, err := service.Filter(ctx, args[0], *sheetOut)
		if err != nil {
			serviceutil.Fatal("filter workbook", err)
		}

		slog.Info("workbook filtered",
			"rows", stats.Rows,
			"kept", stats.Kept,
			"no_company_number", stats.NoCompanyNumber,
			"lookup_failures", stats.LookupFailures,
			"output", *sheetOut)
	},
}
