// =============================================================================
// IFRS Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand is
// attached here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ifrs-report)
//   ├── reportCmd  (ifrs-report report FILE --rate R)
//   ├── serveCmd   (ifrs-report serve)
//   ├── configCmd  (ifrs-report config)
//   └── versionCmd (ifrs-report version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration (file, IFRS_* environment, bound flags)
//   2. Validates the enumerated settings
//   3. Builds the zap logger
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"github.com/ginjaninja78/ifrs-report/internal/logging"
	"github.com/ginjaninja78/ifrs-report/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose switches the log level to debug unless --log-level is given.
var verbose bool

// logLevel overrides logging.level from the configuration.
var logLevel string

// v collects flag bindings from the subcommands.
var v = viper.New()

// appConfig and logger are set by loadConfig before any subcommand runs.
var (
	appConfig *config.Config
	logger    = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "ifrs-report",
	Short: "IFRS Report - Find the largest companies in a CMF IFRS extract",
	Long: `IFRS Report reads the semicolon-delimited IFRS financial statement extract
published by the CMF, converts revenue and trade receivables to USD at a given
exchange rate and lists every company whose larger figure reaches 40,000,000 USD.

Results are previewed in the terminal and exported as an Excel workbook.

Example Usage:
  ifrs-report report ifrs_202312.txt --rate 950     # Preview and export
  ifrs-report report - --rate 950 --preview json    # Read from stdin, JSON preview
  ifrs-report serve --addr :9090                    # Start the upload page
  ifrs-report config                                # Show the effective configuration`,

	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"",
		"Log level override: debug, info, warn, error",
	)
}

// loadConfig loads and validates the configuration and builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithViper(v, cfgFile)
	if err != nil {
		return err
	}

	if errs := validation.ValidateConfig(cfg); len(errs) > 0 {
		return errors.New(validation.FormatErrors(errs))
	}

	level := logLevel
	if level == "" && verbose {
		level = "debug"
	}

	log, err := logging.New(cfg.Logging, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appConfig = cfg
	logger = log

	logger.Debug("configuration loaded",
		zap.String("op", "cmd.loadConfig"),
		zap.String("config_file", cfgFile),
		zap.String("command", cmd.Name()))

	return nil
}

// bindFlag binds a subcommand flag to a configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	cobra.CheckErr(v.BindPFlag(key, cmd.Flags().Lookup(flag)))
}
