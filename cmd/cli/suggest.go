package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/internal/mapping"
	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	suggestFlags  parseFlags
	suggestMode   string
	suggestOutput string
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Suggest a column mapping for a file",
	Long: `Match the file's column names against the price list field catalog of a pricing
mode and print the suggested mapping. The JSON output can be edited and passed to
import with --mapping.`,
	Example: `  pricelist-import suggest ./data/supplier.csv --mode percentage
  pricelist-import suggest ./data/supplier.csv --output json > mapping.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestFlags.register(suggestCmd)
	suggestCmd.Flags().StringVar(&suggestMode, "mode", string(types.PricingNetOnly), "Pricing mode: net_only, calculated, percentage or code_mapping")
	suggestCmd.Flags().StringVar(&suggestOutput, "output", "table", "Output format: table or json")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	mode := types.PricingMode(suggestMode)
	if !mode.Valid() {
		return fmt.Errorf("invalid pricing mode: %s", suggestMode)
	}

	content, pc, _, err := suggestFlags.load(cmd, filePath)
	if err != nil {
		return err
	}

	catalog := mapping.CatalogFor(mode)
	suggested, err := suggestMapping(cmd.Context(), content, pc, catalog)
	if err != nil {
		return err
	}

	switch strings.ToLower(suggestOutput) {
	case "json":
		return writeJSON(suggested)
	case "table":
		outputSuggestTable(suggested, catalog)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", suggestOutput)
	}
}

// suggestMapping reads the file's columns and proposes a mapping for them
func suggestMapping(ctx context.Context, content string, pc types.ParseConfig, catalog mapping.Catalog) (types.ColumnMapping, error) {
	preview, err := newImporter().Preview(ctx, content, pc, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return mapping.Suggest(preview.Columns, catalog), nil
}

func outputSuggestTable(suggested types.ColumnMapping, catalog mapping.Catalog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Column\tField\n")
	fmt.Fprintf(w, "------\t-----\n")
	mapped := make(map[string]bool)
	for _, a := range suggested {
		field := a.Field
		if field == "" {
			field = "-"
		} else {
			mapped[field] = true
		}
		fmt.Fprintf(w, "%s\t%s\n", a.Column, field)
	}
	w.Flush()

	var missing []string
	for _, key := range catalog.RequiredKeys() {
		if !mapped[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		fmt.Printf("\nRequired fields without a column: %s\n", strings.Join(missing, ", "))
	}
}
