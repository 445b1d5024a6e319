package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/internal/archive"
	"github.com/kosarica/pricelist-import/internal/parsers/charset"
	"github.com/kosarica/pricelist-import/internal/types"
	"github.com/kosarica/pricelist-import/internal/variants"
)

// parseFlags are the tokenizer settings shared by preview, suggest and import
type parseFlags struct {
	template  string
	format    string
	delimiter string
	quote     string
	header    bool
	skipRows  int
	encoding  string
	sheet     string
	entry     string
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.template, "template", "", "Import template ID (see the templates command)")
	cmd.Flags().StringVar(&f.format, "format", "", "File format: csv, fixed-width or xlsx (default: from extension)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter (default: auto-detect)")
	cmd.Flags().StringVar(&f.quote, "quote", "", `CSV quote character (default: ")`)
	cmd.Flags().BoolVar(&f.header, "header", true, "First data line is a header row")
	cmd.Flags().IntVar(&f.skipRows, "skip-rows", 0, "Lines to discard before the header or data")
	cmd.Flags().StringVar(&f.encoding, "encoding", "auto", "File encoding: auto, utf-8, windows-1250 or iso-8859-2")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringVar(&f.entry, "entry", "", "File inside a .zip archive (default: the only price list file)")
}

// load reads the input file, unpacking zip archives, and returns its decoded
// content with the parse config resolved against the name of the file read
func (f *parseFlags) load(cmd *cobra.Command, path string) (string, types.ParseConfig, *types.ImportTemplate, error) {
	data, name, err := readSource(cmd.Context(), path, f.entry)
	if err != nil {
		return "", types.ParseConfig{}, nil, err
	}
	pc, tmpl, err := f.resolve(cmd, name)
	if err != nil {
		return "", pc, nil, err
	}
	content, err := decodeInput(data, pc)
	if err != nil {
		return "", pc, nil, err
	}
	return content, pc, tmpl, nil
}

// resolve builds the parse config: the template's when one is named, with
// explicitly set flags taking precedence
func (f *parseFlags) resolve(cmd *cobra.Command, path string) (types.ParseConfig, *types.ImportTemplate, error) {
	var pc types.ParseConfig
	var tmpl *types.ImportTemplate

	if f.template != "" {
		registry, err := loadTemplates()
		if err != nil {
			return pc, nil, err
		}
		t, err := registry.MustGet(f.template)
		if err != nil {
			return pc, nil, err
		}
		tmpl = &t
		pc = t.ParseConfig
	} else {
		pc.FormatType = formatFromExtension(path)
		pc.HasHeader = f.header
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		pc.FormatType = types.FormatType(f.format)
	}
	if flags.Changed("delimiter") {
		pc.Delimiter = unescapeDelimiter(f.delimiter)
	}
	if flags.Changed("quote") {
		pc.QuoteChar = f.quote
	}
	if flags.Changed("header") {
		pc.HasHeader = f.header
	}
	if flags.Changed("skip-rows") {
		pc.SkipRows = f.skipRows
	}
	if flags.Changed("encoding") || pc.Encoding == "" {
		pc.Encoding = f.encoding
	}
	if flags.Changed("sheet") {
		pc.Sheet = f.sheet
	}

	return pc, tmpl, nil
}

// readSource reads a supplier file. For zip archives the chosen entry is
// returned along with its name.
func readSource(ctx context.Context, path, entry string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	logger.Debug().Str("file", path).Int("bytes", len(data)).Msg("Read file")

	if !archive.IsArchive(path) {
		return data, path, nil
	}

	entries, err := archive.Expand(ctx, data, archive.DefaultOptions())
	if err != nil {
		return nil, "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	selected, err := archive.Select(entries, entry)
	if err != nil {
		return nil, "", err
	}
	logger.Debug().
		Str("archive", path).
		Str("entry", selected.Name).
		Str("sha256", selected.Hash).
		Int64("bytes", selected.Size).
		Msg("Using archive entry")
	return selected.Content, selected.Name, nil
}

// decodeInput converts text formats to UTF-8; xlsx content is passed through
// as raw bytes
func decodeInput(data []byte, pc types.ParseConfig) (string, error) {
	if pc.FormatType == types.FormatXLSX {
		return string(data), nil
	}

	enc, err := charset.ParseEncoding(pc.Encoding)
	if err != nil {
		return "", err
	}
	if enc == charset.EncodingAuto {
		enc = charset.DetectEncoding(data)
		logger.Debug().Str("encoding", string(enc)).Msg("Detected encoding")
	}
	return charset.Decode(data, enc)
}

// formatFromExtension picks xlsx or csv; fixed-width files need a template
// declaring their columns
func formatFromExtension(path string) types.FormatType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return types.FormatXLSX
	default:
		return types.FormatCSV
	}
}

func unescapeDelimiter(d string) string {
	switch d {
	case `\t`, "tab":
		return "\t"
	case "comma":
		return ","
	case "semicolon":
		return ";"
	default:
		return d
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadVariants(path string) (*variants.Index, error) {
	var list []variants.Variant
	if err := readJSON(path, &list); err != nil {
		return nil, err
	}
	return variants.NewIndex(list), nil
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
