package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leadscout-backend/lib/telemetry"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "leadscout finds UK acquisition leads from Companies House and HMRC data.",
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging/instrumentation.")
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if serr := telemetry.Shutdown(context.Background()); serr != nil {
		fmt.Fprintln(os.Stderr, serr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
