// =============================================================================
// IFRS Report - Report Command
// =============================================================================
//
// This file defines the 'report' command, the command line rendition of the
// upload page. It runs the whole pipeline on one extract.
//
// COMMAND USAGE:
//   ifrs-report report FILE --rate R [flags]
//
// FLAGS:
//   --rate       : Exchange rate in CLP per USD (100 to 2000)
//   --out        : Directory for the workbook (output.dir)
//   --preview    : table, markdown, json, yaml or none (output.preview)
//   --no-export  : Print the preview only, write no workbook
//
// PROCESSING PIPELINE:
//   1. Validate the exchange rate
//   2. Read the extract (FILE, or stdin when FILE is "-")
//   3. Run the converter
//   4. Print the preview and the count message
//   5. Write the workbook
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"github.com/ginjaninja78/ifrs-report/internal/converter"
	"github.com/ginjaninja78/ifrs-report/internal/preview"
	"github.com/ginjaninja78/ifrs-report/internal/validation"
	"github.com/ginjaninja78/ifrs-report/internal/xlsxwriter"
	"github.com/ginjaninja78/ifrs-report/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// rate is the exchange rate in CLP per USD.
var rate float64

// noExport skips writing the workbook.
var noExport bool

// =============================================================================
// REPORT COMMAND DEFINITION
// =============================================================================

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Generate the large companies report from an IFRS extract",
	Long: `The report command reads a CMF IFRS extract, converts the revenue and trade
receivables line items to USD and lists every company whose larger figure is at
least 40,000,000 USD, sorted from largest to smallest.

The preview is printed to standard output. The workbook is written to the
output directory unless --no-export is given. Use "-" as FILE to read the
extract from standard input.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Float64Var(&rate, "rate", 0, "Exchange rate in CLP per USD (required)")
	reportCmd.Flags().String("out", "", "Directory where the workbook is written")
	reportCmd.Flags().String("preview", "", "Preview format: table, markdown, json, yaml, none")
	reportCmd.Flags().BoolVar(&noExport, "no-export", false, "Do not write the workbook")

	_ = reportCmd.MarkFlagRequired("rate")

	bindFlag(reportCmd, "output.dir", "out")
	bindFlag(reportCmd, "output.preview", "preview")
}

// =============================================================================
// MAIN REPORT FUNCTION
// =============================================================================

func runReport(cmd *cobra.Command, path string) error {
	log := logger.With(zap.String("op", "cmd.runReport"))

	// =========================================================================
	// STEP 1: VALIDATE THE EXCHANGE RATE
	// =========================================================================

	if err := validation.ValidateExchangeRate(rate); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: READ THE EXTRACT
	// =========================================================================

	content, err := utils.ReadInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return fmt.Errorf("input %s is empty", path)
	}

	log.Debug("input read", zap.String("path", path), zap.Int("bytes", len(content)))

	// =========================================================================
	// STEP 3: RUN THE CONVERTER
	// =========================================================================

	settings := converter.DefaultSettings()
	settings.Input = appConfig.Input

	conv := converter.New(settings, logger)
	result, err := conv.Run(content, rate)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: PREVIEW
	// =========================================================================

	if err := writePreview(cmd.OutOrStdout(), appConfig.Output, settings.Title, result); err != nil {
		return err
	}

	// =========================================================================
	// STEP 5: EXPORT
	// =========================================================================

	if noExport {
		return nil
	}

	workbook, err := xlsxwriter.Export(result.Entities, xlsxwriter.Options{Title: settings.Title})
	if err != nil {
		return err
	}

	name := utils.GenerateOutputFileName(appConfig.Output.FileName, map[string]string{
		"rate": strconv.FormatFloat(rate, 'f', -1, 64),
	})

	fm := utils.NewFileManager(appConfig.Output.Dir)
	written, err := fm.WriteOutput(name, workbook.Bytes())
	if err != nil {
		return err
	}

	log.Info("workbook written",
		zap.String("run_id", result.RunID),
		zap.String("path", written),
		zap.Int("entities", len(result.Entities)))
	fmt.Fprintf(cmd.ErrOrStderr(), "Workbook written to %s\n", written)

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// previewDocument is the json and yaml shape of the preview.
type previewDocument struct {
	Title     string                    `json:"title" yaml:"title"`
	RunID     string                    `json:"run_id" yaml:"run_id"`
	Message   string                    `json:"message" yaml:"message"`
	Threshold float64                   `json:"threshold" yaml:"threshold"`
	Rows      []preview.Row             `json:"rows" yaml:"rows"`
	Stats     converter.ProcessingStats `json:"stats" yaml:"stats"`
}

// writePreview prints the result in the configured preview format.
func writePreview(w io.Writer, out config.OutputSettings, title string, result *converter.Result) error {
	rows := preview.Rows(result.Entities)

	switch out.Preview {
	case config.PreviewTable:
		rendered, err := preview.Terminal(preview.Document(title, result.Message, rows), out.Style)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, rendered)
		return err

	case config.PreviewMarkdown:
		_, err := io.WriteString(w, preview.Document(title, result.Message, rows))
		return err

	case config.PreviewJSON, config.PreviewYAML:
		doc := previewDocument{
			Title:     title,
			RunID:     result.RunID,
			Message:   result.Message,
			Threshold: result.Threshold,
			Rows:      rows,
			Stats:     result.Stats,
		}
		if out.Preview == config.PreviewYAML {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode preview: %w", err)
			}
			return enc.Close()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode preview: %w", err)
		}
		return nil

	case config.PreviewNone:
		_, err := fmt.Fprintln(w, result.Message)
		return err

	default:
		return fmt.Errorf("unknown preview format: %s", out.Preview)
	}
}
