package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/pricelist-import/config"
	"github.com/kosarica/pricelist-import/internal/importer"
	"github.com/kosarica/pricelist-import/internal/telemetry"
	"github.com/kosarica/pricelist-import/internal/templates"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger

	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pricelist-import",
	Short: "Supplier price list import tool",
	Long: `A CLI tool for importing supplier price lists. It reads delimited, fixed-width
and Excel files, maps their columns to price list fields, reconciles gross, net and
discount prices per the supplier's pricing mode and resolves every row to a product
variant, reporting per-row errors and warnings.`,
	PersistentPreRunE:  persistentPreRun,
	PersistentPostRunE: persistentPostRun,
	SilenceUsage:       true,
}

// Execute runs the root command. Interrupts cancel the command context, which
// an import checks between rows.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = initLogger(os.Stderr)
	log.Logger = *logger

	shutdownTelemetry, err = telemetry.Init(cmd.Context(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		Environment:    cfg.Telemetry.Environment,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}

	return nil
}

func persistentPostRun(cmd *cobra.Command, args []string) error {
	if shutdownTelemetry == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTelemetry(ctx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
	return nil
}

// initLogger writes to out so stdout stays clean for command output
func initLogger(out io.Writer) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = out
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: out, NoColor: noColor}
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &l
}

// newImporter builds an importer from the loaded config
func newImporter() *importer.Importer {
	return importer.New(importer.Options{
		BrandAwareEnabled: cfg.Import.BrandAwareEnabled,
		ToleranceCents:    cfg.Import.ToleranceCents,
		Workers:           cfg.Import.Workers,
		MaxRows:           cfg.Import.MaxRows,
		PreviewRows:       cfg.Import.PreviewRows,
	}, *logger)
}

// loadTemplates registers the built-in templates and any in the configured
// templates directory
func loadTemplates() (*templates.Registry, error) {
	if templates.DefaultRegistry.Len() > 0 {
		return templates.DefaultRegistry, nil
	}
	if err := templates.InitializeDefaultTemplates(); err != nil {
		return nil, err
	}
	if dir := cfg.Import.TemplatesDir; dir != "" {
		if _, err := templates.DefaultRegistry.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
	}
	return templates.DefaultRegistry, nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
