// =============================================================================
// IFRS Report - Converter Module
// =============================================================================
//
// This module contains the report pipeline. It runs every stage for a single
// upload, from raw bytes to the ranked entity list.
//
// REPORT PIPELINE:
//   1. Check the preconditions (content and exchange rate present)
//   2. Parse the extract into raw records
//   3. Normalize text and convert amounts to USD
//   4. Pivot the two target line items per entity
//   5. Keep entities at or above the threshold, largest first
//
// Every run is independent: the converter holds only its settings and can be
// shared between goroutines.
//
// =============================================================================

package converter

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"github.com/ginjaninja78/ifrs-report/internal/csvparser"
	"github.com/ginjaninja78/ifrs-report/internal/logging"
	"github.com/ginjaninja78/ifrs-report/internal/preview"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Title is the report title shown above the preview.
const Title = "Informe IFRS - Empresas Grandes"

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the fixed parameters of the report.
type Settings struct {
	// Title is the report title.
	Title string

	// Threshold is the inclusive USD cutoff applied to max_usd.
	Threshold float64

	// LineItems are the two cuenta values that feed the report.
	LineItems LineItems

	// Input controls decoding and the malformed-row policy.
	Input config.InputSettings
}

// DefaultSettings returns the settings of the IFRS large-entity report.
func DefaultSettings() Settings {
	return Settings{
		Title:     Title,
		Threshold: DefaultThreshold,
		LineItems: DefaultLineItems(),
		Input: config.InputSettings{
			Encoding:      config.DefaultEncoding,
			MalformedRows: config.MalformedReject,
		},
	}
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// Ran is false when the preconditions were not met and nothing ran.
	Ran bool

	// RunID identifies the run in logs and responses.
	RunID string

	// Entities is the ranked entity list.
	Entities []types.EntitySummary

	// Message is the count-of-matches line shown with the preview.
	Message string

	// Threshold is the cutoff the entities were filtered with.
	Threshold float64

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one run.
type ProcessingStats struct {
	// LinesRead is the number of non-blank input lines.
	LinesRead int `json:"lines_read" yaml:"lines_read"`

	// RecordsParsed is the number of well-formed records.
	RecordsParsed int `json:"records_parsed" yaml:"records_parsed"`

	// RowsSkipped is the number of malformed lines dropped under the skip policy.
	RowsSkipped int `json:"rows_skipped" yaml:"rows_skipped"`

	// MatchingRows is the number of records of the two target line items.
	MatchingRows int `json:"matching_rows" yaml:"matching_rows"`

	// UnconvertedRows is the number of matching records without a USD value.
	UnconvertedRows int `json:"unconverted_rows" yaml:"unconverted_rows"`

	// EntitiesPivoted is the number of distinct entities after the pivot.
	EntitiesPivoted int `json:"entities_pivoted" yaml:"entities_pivoted"`

	// EntitiesReported is the number of entities at or above the threshold.
	EntitiesReported int `json:"entities_reported" yaml:"entities_reported"`

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter runs the report pipeline.
type Converter struct {
	settings Settings
	logger   *zap.Logger
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - settings: The report settings, usually DefaultSettings().
//   - logger: The logger; nil disables logging.
//
// RETURNS:
//   - A new Converter instance.
func New(settings Settings, logger *zap.Logger) *Converter {
	return &Converter{
		settings: settings,
		logger:   logging.OrNop(logger),
	}
}

// Settings returns the settings of the converter.
func (c *Converter) Settings() Settings {
	return c.settings
}

// Run executes the pipeline for one upload.
//
// PARAMETERS:
//   - content: The raw bytes of the extract.
//   - rate: The exchange rate in CLP per USD, already validated by the caller.
//
// RETURNS:
//   - The Result. When content is empty or rate is zero the pipeline does not
//     run and Result.Ran is false; this is not an error.
//   - An error if the extract cannot be parsed.
func (c *Converter) Run(content []byte, rate float64) (*Result, error) {
	startTime := time.Now()
	result := &Result{
		RunID:     uuid.NewString(),
		Entities:  []types.EntitySummary{},
		Threshold: c.settings.Threshold,
	}

	log := c.logger.With(zap.String("op", "converter.Run"), zap.String("run_id", result.RunID))

	// =========================================================================
	// STEP 1: CHECK PRECONDITIONS
	// =========================================================================

	if len(content) == 0 || rate == 0 {
		log.Debug("inputs missing, report not run",
			zap.Int("content_bytes", len(content)),
			zap.Float64("rate", rate))
		return result, nil
	}

	// =========================================================================
	// STEP 2: PARSE THE EXTRACT
	// =========================================================================

	data, err := csvparser.Parse(content, c.settings.Input)
	if err != nil {
		log.Warn("failed to parse input", zap.Error(err))
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	result.Stats.LinesRead = data.LineCount
	result.Stats.RecordsParsed = len(data.Records)
	result.Stats.RowsSkipped = len(data.Skipped)

	for _, skipped := range data.Skipped {
		log.Debug("skipped malformed line", zap.Int("line", skipped.Line), zap.Int("fields", skipped.Fields))
	}

	// =========================================================================
	// STEP 3: NORMALIZE AND CONVERT
	// =========================================================================

	records := TransformAll(data.Records, rate)

	targets := c.settings.LineItems.Normalized()
	for _, record := range records {
		if !targets.Contains(record.Cuenta) {
			continue
		}
		result.Stats.MatchingRows++
		if !record.MontoUSD.Valid {
			result.Stats.UnconvertedRows++
		}
	}

	// =========================================================================
	// STEP 4: PIVOT
	// =========================================================================

	summaries := Pivot(records, c.settings.LineItems)
	result.Stats.EntitiesPivoted = len(summaries)

	// =========================================================================
	// STEP 5: THRESHOLD AND RANK
	// =========================================================================

	result.Entities = Rank(summaries, c.settings.Threshold)
	result.Stats.EntitiesReported = len(result.Entities)

	result.Ran = true
	result.Message = preview.Message(len(result.Entities), c.settings.Threshold)
	result.Stats.ProcessingTime = time.Since(startTime)

	log.Info("report generated",
		zap.Int("lines", result.Stats.LinesRead),
		zap.Int("records", result.Stats.RecordsParsed),
		zap.Int("skipped", result.Stats.RowsSkipped),
		zap.Int("matching", result.Stats.MatchingRows),
		zap.Int("unconverted", result.Stats.UnconvertedRows),
		zap.Int("entities", result.Stats.EntitiesPivoted),
		zap.Int("reported", result.Stats.EntitiesReported),
		zap.Duration("duration", result.Stats.ProcessingTime))

	return result, nil
}
