package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fattura",
	Short: "Fattura Elettronica toolbox - normalize FatturaPA XML and render printable documents",
	Long: `fattura ingests Italian electronic invoices (FatturaPA XML), normalizes
them into canonical records and renders fixed-layout A4 PDF documents.

It can convert a single file, watch an inbox directory and keep every
processed invoice in a local SQLite database for the approval workflow.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "fattura.toml", "path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
