package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	previewFlags  parseFlags
	previewRows   int
	previewOutput string
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the first rows of a file as parsed columns",
	Long: `Parse the first rows of a supplier file under a template or explicit parse
settings and show the resulting columns and transformed values, before any field
mapping. The total row count covers the whole file.`,
	Example: `  pricelist-import preview ./data/supplier.csv
  pricelist-import preview ./data/cnh.txt --template cnh --rows 5
  pricelist-import preview ./data/list.xlsx --sheet Cjenik --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewFlags.register(previewCmd)
	previewCmd.Flags().IntVar(&previewRows, "rows", 0, "Rows to show (default: import.preview_rows)")
	previewCmd.Flags().StringVar(&previewOutput, "output", "table", "Output format: table or json")
}

func runPreview(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	content, pc, _, err := previewFlags.load(cmd, filePath)
	if err != nil {
		return err
	}

	result, err := newImporter().Preview(cmd.Context(), content, pc, previewRows)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	switch strings.ToLower(previewOutput) {
	case "json":
		return writeJSON(result)
	case "table":
		outputPreviewTable(result)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", previewOutput)
	}
}

func outputPreviewTable(result *types.PreviewResult) {
	if result.DetectedFormat != "" {
		fmt.Printf("Detected format: %s", result.DetectedFormat)
		if result.DetectedDelimiter != "" {
			fmt.Printf(" (delimiter %q)", result.DetectedDelimiter)
		}
		fmt.Println()
	}
	fmt.Printf("Showing %d of %d rows\n\n", len(result.Rows), result.TotalRows)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Line\t%s\n", strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, c := range result.Columns {
			cells[i] = row.Values[c].String()
		}
		fmt.Fprintf(w, "%d\t%s\n", row.LineNumber, strings.Join(cells, "\t"))
	}
	w.Flush()

	printMessages("Errors", result.Errors)
	printMessages("Warnings", result.Warnings)
}

// printMessages prints at most 10 messages under a heading
func printMessages(heading string, messages []string) {
	if len(messages) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", heading, len(messages))
	fmt.Println(strings.Repeat("-", 60))
	for i, msg := range messages {
		if i >= 10 {
			fmt.Printf("... and %d more\n", len(messages)-10)
			break
		}
		fmt.Printf("  %s\n", msg)
	}
}
