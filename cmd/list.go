package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/alapierre/go-fattura/fattura/config"
	"github.com/alapierre/go-fattura/fattura/model"
	"github.com/alapierre/go-fattura/fattura/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices stored in the database",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("pending", false, "show only invoices awaiting approval")
}

func runList(cmd *cobra.Command, args []string) error {
	pendingOnly, _ := cmd.Flags().GetBool("pending")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return errors.Wrap(err, "opening invoice database")
	}
	defer func() { _ = st.Close() }()

	var invoices []*model.Invoice
	if pendingOnly {
		invoices, err = st.Pending()
	} else {
		invoices, err = st.All()
	}
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMERO\tDATA\tCEDENTE\tTOTALE\tSTATO")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.Number, inv.Date, inv.Seller.Name, inv.Total, inv.Status)
	}
	return w.Flush()
}
