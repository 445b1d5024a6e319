package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/internal/parsers/charset"
	"github.com/kosarica/pricelist-import/internal/parsers/csv"
	"github.com/kosarica/pricelist-import/internal/types"
)

var (
	detectOutput string
	detectEntry  string
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Guess the encoding, format and delimiter of a file",
	Long: `Inspect the first lines of a supplier file and report the detected text encoding,
whether it looks delimited or fixed-width, and the best delimiter among comma,
semicolon and tab. Detection is advisory; templates and flags override it.`,
	Example: `  pricelist-import detect ./data/supplier.csv
  pricelist-import detect ./data/cnh.txt --output json
  pricelist-import detect ./data/supplier.zip --entry cjenik.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(&detectOutput, "output", "table", "Output format: table or json")
	detectCmd.Flags().StringVar(&detectEntry, "entry", "", "File inside a .zip archive (default: the only price list file)")
}

type detectResult struct {
	File      string           `json:"file"`
	Encoding  charset.Encoding `json:"encoding"`
	Format    types.FormatType `json:"format"`
	Delimiter string           `json:"delimiter,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	data, name, err := readSource(cmd.Context(), filePath, detectEntry)
	if err != nil {
		return err
	}

	result := detectResult{File: name}
	if formatFromExtension(name) == types.FormatXLSX {
		result.Format = types.FormatXLSX
	} else {
		result.Encoding = charset.DetectEncoding(data)
		content, err := charset.Decode(data, result.Encoding)
		if err != nil {
			return err
		}
		result.Format = csv.DetectFormat(content)
		if result.Format == types.FormatCSV {
			result.Delimiter = string(csv.DetectDelimiter(content))
		}
	}

	switch strings.ToLower(detectOutput) {
	case "json":
		return writeJSON(result)
	case "table":
		fmt.Printf("File:      %s\n", result.File)
		if result.Encoding != "" {
			fmt.Printf("Encoding:  %s\n", result.Encoding)
		}
		fmt.Printf("Format:    %s\n", result.Format)
		if result.Delimiter != "" {
			fmt.Printf("Delimiter: %s\n", csv.CsvDelimiter(result.Delimiter).Name())
		}
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", detectOutput)
	}
}
