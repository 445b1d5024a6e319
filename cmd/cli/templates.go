package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var templatesOutput string

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List import templates",
	Long: `List the built-in import templates and those loaded from import.templates_dir.
Use --output json to print the full template definitions.`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.Flags().StringVar(&templatesOutput, "output", "table", "Output format: table or json")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	registry, err := loadTemplates()
	if err != nil {
		return err
	}
	list := registry.List()

	switch strings.ToLower(templatesOutput) {
	case "json":
		return writeJSON(list)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "ID\tName\tFormat\tPricing Mode\tMapped Columns\n")
		fmt.Fprintf(w, "--\t----\t------\t------------\t--------------\n")
		for _, t := range list {
			mode := string(t.PricingMode)
			if mode == "" {
				mode = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.ID, t.Name, t.FileType, mode, len(t.ColumnMapping))
		}
		w.Flush()
		fmt.Printf("\nTotal: %d templates\n", len(list))
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", templatesOutput)
	}
}
