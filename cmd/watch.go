package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alapierre/go-fattura/fattura/config"
	"github.com/alapierre/go-fattura/fattura/layout"
	"github.com/alapierre/go-fattura/fattura/store"
	"github.com/alapierre/go-fattura/fattura/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox directory and process incoming invoices",
	Long: `Watch runs the full ingestion pipeline: every FatturaPA XML file
dropped into the inbox is normalized, stored in the invoice database
and rendered as a PDF into the output directory.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return errors.Wrap(err, "opening invoice database")
	}
	defer func() { _ = st.Close() }()

	var opts []layout.Option
	if cfg.QREnabled {
		opts = append(opts, layout.WithQR())
	}

	if err := os.MkdirAll(cfg.InboxDir, 0o755); err != nil {
		return errors.Wrap(err, "creating inbox dir")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(watch.Config{
		InboxDir:  cfg.InboxDir,
		OutputDir: cfg.OutputDir,
	}, st, layout.NewRenderer(opts...))

	return w.Run(ctx)
}
