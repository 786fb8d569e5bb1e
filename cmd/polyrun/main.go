package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/polyrun/internal/config"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "polyrun",
	Short: "polyrun - run code in many languages",
	Long: `polyrun runs source code and returns its output, diagnostics and metrics.

JavaScript and TypeScript are evaluated in-process. Other languages (python,
java, cpp, go, rust, ...) are sent to a JDoodle-compatible remote service,
which needs POLYRUN_REMOTE_CLIENT_ID and POLYRUN_REMOTE_CLIENT_SECRET.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./polyrun.yaml or ~/.polyrun/polyrun.yaml)")
}

// loadConfig honours --config, falling back to the default search paths.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
