package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alapierre/go-fattura/fattura/extract"
	"github.com/alapierre/go-fattura/fattura/layout"
	"github.com/alapierre/go-fattura/fattura/xmltree"
)

var convertCmd = &cobra.Command{
	Use:   "convert [xml-file]",
	Short: "Convert one FatturaPA XML file to a printable PDF",
	Example: `  # Write fattura.pdf next to the source file
  fattura convert fattura.xml

  # Choose the output path and embed the verification QR code
  fattura convert fattura.xml -o out/doc.pdf --qr`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "", "output PDF path (default: source path with .pdf extension)")
	convertCmd.Flags().Bool("qr", false, "embed the verification QR code")
}

func runConvert(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	withQR, _ := cmd.Flags().GetBool("qr")

	xmlPath := args[0]
	if outputPath == "" {
		outputPath = strings.TrimSuffix(xmlPath, ".xml") + ".pdf"
	}

	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		return fmt.Errorf("can't read %s: %w", xmlPath, err)
	}

	tree, err := xmltree.Parse(raw)
	if err != nil {
		return fmt.Errorf("can't parse %s: %w", xmlPath, err)
	}

	inv, err := extract.Extract(tree)
	if err != nil {
		return fmt.Errorf("can't extract invoice from %s: %w", xmlPath, err)
	}

	var opts []layout.Option
	if withQR {
		opts = append(opts, layout.WithQR())
	}

	pdf, err := layout.NewRenderer(opts...).Render(inv)
	if err != nil {
		return fmt.Errorf("can't render document: %w", err)
	}

	if err := os.WriteFile(outputPath, pdf, 0o644); err != nil {
		return fmt.Errorf("can't write %s: %w", outputPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"number": inv.Number,
		"output": outputPath,
	}).Info("invoice converted")

	return nil
}
