package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"leadscout-backend/lib/timezone"
	"leadscout-backend/lib/util/serviceutil"
	"leadscout-backend/services/vatreport"
)

var vatreportOut *string

func init() {
	vatreportOut = vatreportCmd.Flags().String("out", "", "Directory to write the report to.")
	rootCmd.AddCommand(vatreportCmd)
}

var vatreportCmd = &cobra.Command{
	Use:   "vatreport <path/to/vrns.txt>",
	Short: "Filters a list of VAT registration numbers by annual turnover.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		initTelemetry(ctx)

		vrns, err := vatreport.LoadVrns(args[0])
		if err != nil {
			serviceutil.Fatal("read vrn list", err)
		}
		slog.Info("loaded vrn list", "count", len(vrns))

		vat := newVatClient()
		if err := vat.Ping(ctx); err != nil {
			serviceutil.Fatal("hmrc api unreachable", err)
		}

		sink, err := vatreport.NewCSVSink(vatreport.OutputPath(*vatreportOut, timezone.Now()))
		if err != nil {
			serviceutil.Fatal("create output file", err)
		}

		service := vatreport.NewService(vat, vatreport.DefaultOptions())
		stats, err := service.Run(ctx, vrns, sink)

		if cerr := sink.Close(); cerr != nil {
			serviceutil.Fatal("finalize output file", cerr)
		}
		if err != nil {
			serviceutil.Fatal("vat report failed", err)
		}

		slog.Info("vat report written",
			"path", sink.Path(),
			"processed", stats.Processed,
			"saved", stats.Saved,
			"below_threshold", stats.BelowThreshold,
			"failures", stats.Failures)
	},
}
