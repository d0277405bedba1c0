// main.go - privlibd, the confidential library service.
//
// Books are published to the library contract with their page count
// encrypted; the creator can later disclose the count through an on-chain
// proof check.
//
// Usage:
//
//	privlibd serve --wallet 0x...    serve the HTTP intents
//	privlibd demo                    publish, disclose and print stats once
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"privlib/internal/config"
	"privlib/internal/logging"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "privlibd",
	Short:         "Confidential library service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "privlib.yaml", "Configuration file (created with defaults when missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.AddCommand(serveCmd, demoCmd)
}

// loadRuntime reads the configuration and opens the loggers.
func loadRuntime() (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.AuditFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
