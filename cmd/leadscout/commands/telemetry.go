package commands

import (
	"context"
	"log/slog"
	"os"

	"leadscout-backend/lib/restyutil"
	"leadscout-backend/lib/scrapers/companieshouse"
	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/telemetry"
	"leadscout-backend/lib/util/serviceutil"
)

// initTelemetry runs at the start of every command. Running without a
// telemetry.json5 is fine, spans then stay local.
func initTelemetry(ctx context.Context) {
	telemetry.InitSlog(*verbose)

	if *verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "leadscout")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	if !*verbose {
		return
	}

	companieshouse.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/companieshouse"),
	)
	hmrcvat.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/hmrcvat"),
	)
}
