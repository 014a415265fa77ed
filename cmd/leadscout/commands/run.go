package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"leadscout-backend/lib/configutil"
	"leadscout-backend/lib/scrapers/companieshouse"
	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/timezone"
	"leadscout-backend/lib/util/serviceutil"
	"leadscout-backend/services/leadgen"
)

type RunConfig struct {
	Leadgen leadgen.Options       `json:"leadgen"`
	Notify  leadgen.NotifyOptions `json:"notify"`
	// OutputDir receives the report. Empty means the working directory.
	OutputDir string `json:"output_dir"`
}

var runOut *string

func init() {
	runOut = runCmd.Flags().String("out", "", "Directory to write the report to, overrides the config.")
	rootCmd.AddCommand(runCmd)
}

func newCompaniesHouseClient() *companieshouse.Client {
	client, err := companieshouse.NewClient(companieshouse.ClientOptions{
		ApiKey: serviceutil.RequireEnv("COMPANIES_API_KEY"),
	})
	if err != nil {
		serviceutil.Fatal("init companies house client", err)
	}
	return client
}

func newVatClient() *hmrcvat.Client {
	// HMRC issues one server token that doubles as the client secret
	serverToken := serviceutil.RequireEnv("HMRC_SERVER_TOKEN")
	client, err := hmrcvat.NewClient(hmrcvat.ClientOptions{
		ClientId:     serviceutil.RequireEnv("HMRC_API_KEY"),
		ClientSecret: serverToken,
		ServerToken:  serverToken,
	})
	if err != nil {
		serviceutil.Fatal("init hmrc client", err)
	}
	return client
}

var runCmd = &cobra.Command{
	Use:   "run [--out <dir>]",
	Short: "Searches Companies House and writes qualifying acquisition leads to CSV.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		initTelemetry(ctx)

		cfg, err := configutil.ReadConfig[RunConfig]("config.json5")
		if err != nil && !os.IsNotExist(err) {
			serviceutil.Fatal("read config", err)
		}

		registry := newCompaniesHouseClient()
		vat := newVatClient()
		if err := vat.Ping(ctx); err != nil {
			serviceutil.Fatal("hmrc api unreachable", err)
		}

		outputDir := cfg.OutputDir
		if *runOut != "" {
			outputDir = *runOut
		}
		sink, err := leadgen.NewCSVSink(leadgen.OutputPath(outputDir, timezone.Now()))
		if err != nil {
			serviceutil.Fatal("create output file", err)
		}

		service := leadgen.NewService(registry, vat, cfg.Leadgen)

		t1 := time.Now()
		stats, err := service.Run(ctx, sink)
		t2 := time.Now()

		if cerr := sink.Close(); cerr != nil {
			serviceutil.Fatal("finalize output file", cerr)
		}
		if err != nil {
			serviceutil.Fatal("pipeline run failed", err)
		}

		fmt.Println(stats.Render())
		slog.Info("report written",
			"path", sink.Path(), "seconds", t2.Sub(t1).Seconds())

		if err := leadgen.SendRunReport(ctx, cfg.Notify, stats, sink.Path()); err != nil {
			serviceutil.Fatal("send run report", err)
		}
	},
}
