package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/internal/importer"
	"github.com/kosarica/pricelist-import/internal/mapping"
	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	importFlags       parseFlags
	importMode        string
	importMapping     string
	importVariants    string
	importSupplier    string
	importBrand       string
	importOutput      string
	importMetricsFile string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a supplier price list",
	Long: `Parse every row of a supplier price list, reconcile its prices under the pricing
mode and resolve each row to a product variant from the variants file. Rows that fail
are reported and skipped; the command exits non-zero when any row failed.

The variants file is a JSON array of {id, product_id, sku, brand_id, brand_code}.
The supplier file is a JSON object with discount_structure, brand_aware_purchasing
and authorized_brand_ids.`,
	Example: `  pricelist-import import ./data/cnh.txt --template cnh --variants variants.json --supplier cnh.json
  pricelist-import import ./data/list.csv --mode net_only --variants variants.json --output json
  pricelist-import import ./data/list.csv --mapping mapping.json --brand brand-123 --variants variants.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importFlags.register(importCmd)
	importCmd.Flags().StringVar(&importMode, "mode", "", "Pricing mode (default: template, then supplier discount type, then net_only)")
	importCmd.Flags().StringVar(&importMapping, "mapping", "", "Column mapping JSON file (default: template mapping, else suggested)")
	importCmd.Flags().StringVar(&importVariants, "variants", "", "Variants JSON file (required)")
	importCmd.Flags().StringVar(&importSupplier, "supplier", "", "Supplier JSON file")
	importCmd.Flags().StringVar(&importBrand, "brand", "", "Restrict the import to one brand ID")
	importCmd.Flags().StringVar(&importOutput, "output", "table", "Output format: table or json")
	importCmd.Flags().StringVar(&importMetricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	importCmd.MarkFlagRequired("variants")
}

func runImport(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	content, pc, tmpl, err := importFlags.load(cmd, filePath)
	if err != nil {
		return err
	}

	index, err := loadVariants(importVariants)
	if err != nil {
		return err
	}
	logger.Info().Int("variants", index.Len()).Msg("Loaded variants")

	var supplier types.SupplierContext
	if importSupplier != "" {
		if err := readJSON(importSupplier, &supplier); err != nil {
			return err
		}
	}

	mode := resolveMode(tmpl, supplier)
	if !mode.Valid() {
		return fmt.Errorf("invalid pricing mode: %s", mode)
	}

	var columnMapping types.ColumnMapping
	switch {
	case importMapping != "":
		if err := readJSON(importMapping, &columnMapping); err != nil {
			return err
		}
	case tmpl != nil && len(tmpl.ColumnMapping) > 0:
		columnMapping = tmpl.ColumnMapping
	default:
		columnMapping, err = suggestMapping(cmd.Context(), content, pc, mapping.CatalogFor(mode))
		if err != nil {
			return err
		}
		logger.Warn().Msg("No column mapping given; using the suggested mapping")
	}

	result, err := newImporter().Import(cmd.Context(), importer.Request{
		Content:       content,
		ParseConfig:   pc,
		ColumnMapping: columnMapping,
		PricingMode:   mode,
		Variants:      index,
		Supplier:      supplier,
		TargetBrandID: importBrand,
	})

	metricsPath := importMetricsFile
	if metricsPath == "" {
		metricsPath = cfg.Metrics.TextfilePath
	}
	if metricsPath != "" {
		if werr := prometheus.WriteToTextfile(metricsPath, prometheus.DefaultGatherer); werr != nil {
			logger.Warn().Err(werr).Str("path", metricsPath).Msg("Failed to write metrics textfile")
		}
	}

	var serr *importer.StructuralError
	if err != nil && !errors.As(err, &serr) {
		return fmt.Errorf("import failed: %w", err)
	}

	switch strings.ToLower(importOutput) {
	case "json":
		if werr := writeJSON(result); werr != nil {
			return werr
		}
	case "table":
		outputImportTable(result)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", importOutput)
	}

	if serr != nil {
		return fmt.Errorf("import failed: %w", serr)
	}
	if !result.Success {
		return fmt.Errorf("import finished with %d rejected rows", result.InvalidRows)
	}
	return nil
}

// resolveMode picks the pricing mode from the flag, the template or the
// supplier's discount structure, in that order
func resolveMode(tmpl *types.ImportTemplate, supplier types.SupplierContext) types.PricingMode {
	switch {
	case importMode != "":
		return types.PricingMode(importMode)
	case tmpl != nil && tmpl.PricingMode != "":
		return tmpl.PricingMode
	case supplier.Discounts.Type != "":
		return supplier.Discounts.Type
	default:
		return types.PricingNetOnly
	}
}

func outputImportTable(result *types.ImportResult) {
	fmt.Printf("\nImport %s\n", result.RunID)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Success\t%t\n", result.Success)
	fmt.Fprintf(w, "Aborted\t%t\n", result.Aborted)
	fmt.Fprintf(w, "Columns\t%d\n", result.ColumnCount)
	fmt.Fprintf(w, "Total Rows\t%d\n", result.TotalRows)
	fmt.Fprintf(w, "Processed Rows\t%d\n", result.ProcessedRows)
	fmt.Fprintf(w, "Valid Rows\t%d\n", result.ValidRows)
	fmt.Fprintf(w, "Invalid Rows\t%d\n", result.InvalidRows)
	fmt.Fprintf(w, "Errors\t%d\n", len(result.Errors))
	fmt.Fprintf(w, "Warnings\t%d\n", len(result.Warnings))
	fmt.Fprintf(w, "Fingerprint\t%s\n", result.Fingerprint)
	w.Flush()

	if len(result.Items) > 0 {
		fmt.Printf("\nFirst %d Items:\n", min(len(result.Items), 10))
		fmt.Println(strings.Repeat("-", 60))
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Line\tSKU\tVariant\tGross\tDiscount\tNet\tQty\n")
		for i, item := range result.Items {
			if i >= 10 {
				break
			}
			sku, gross, discount := "-", "-", "-"
			if item.VariantSKU != nil {
				sku = *item.VariantSKU
			}
			if item.GrossPrice != nil {
				gross = csv.FormatCentsEuropean(*item.GrossPrice)
			}
			if item.DiscountPercentage != nil {
				discount = fmt.Sprintf("%.2f%%", *item.DiscountPercentage)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
				item.LineNumber, sku, item.ProductVariantID, gross, discount,
				csv.FormatCentsEuropean(item.NetPrice), item.Quantity)
		}
		w.Flush()
	}

	printMessages("Errors", result.Errors)
	printMessages("Warnings", result.Warnings)
}
