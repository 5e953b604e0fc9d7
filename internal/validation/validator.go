// =============================================================================
// IFRS Report - Validation
// =============================================================================
//
// This module validates the inputs that reach the report pipeline from the
// outside:
//   - The exchange rate entered by the user (inclusive range [100, 2000])
//   - The configuration file and environment overrides
//
// The pipeline itself performs no bounds checking. Callers (the report
// command and the HTTP server) validate here first.
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the field, the offending value and the rule
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"github.com/ginjaninja78/ifrs-report/internal/logging"
	"golang.org/x/text/encoding/htmlindex"
)

// Exchange-rate bounds, in CLP per USD.
const (
	MinExchangeRate = 100
	MaxExchangeRate = 2000
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

// =============================================================================
// EXCHANGE RATE
// =============================================================================

// ParseExchangeRate parses a user-entered exchange rate. An empty value
// yields 0, which the pipeline treats as "no rate supplied".
func ParseExchangeRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{
			Field:   "rate",
			Value:   s,
			Rule:    "numeric",
			Message: "exchange rate must be a number",
		}
	}
	return rate, nil
}

// ValidateExchangeRate checks that rate lies in [MinExchangeRate, MaxExchangeRate].
//
// PARAMETERS:
//   - rate: CLP per USD.
//
// RETURNS:
//   - nil if the rate is valid, a *ValidationError otherwise.
func ValidateExchangeRate(rate float64) error {
	value := strconv.FormatFloat(rate, 'f', -1, 64)

	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return &ValidationError{
			Field:   "rate",
			Value:   value,
			Rule:    "finite",
			Message: "exchange rate must be a finite number",
		}
	}

	if rate < MinExchangeRate || rate > MaxExchangeRate {
		return &ValidationError{
			Field:   "rate",
			Value:   value,
			Rule:    fmt.Sprintf("range(%d,%d)", MinExchangeRate, MaxExchangeRate),
			Message: fmt.Sprintf("exchange rate must be between %d and %d CLP per USD", MinExchangeRate, MaxExchangeRate),
		}
	}

	return nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ValidateConfig checks the enumerated settings of a loaded configuration.
//
// RETURNS:
//   - All validation errors found; empty if the configuration is valid.
func ValidateConfig(cfg *config.Config) []*ValidationError {
	var errs []*ValidationError

	if _, err := htmlindex.Get(cfg.Input.Encoding); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "input.encoding",
			Value:   cfg.Input.Encoding,
			Rule:    "encoding",
			Message: "unknown text encoding",
		})
	}

	errs = appendIfNotOneOf(errs, "input.malformed_rows", cfg.Input.MalformedRows,
		config.MalformedReject, config.MalformedSkip)

	errs = appendIfNotOneOf(errs, "output.preview", cfg.Output.Preview,
		config.PreviewTable, config.PreviewMarkdown, config.PreviewJSON, config.PreviewYAML, config.PreviewNone)

	if strings.TrimSpace(cfg.Output.FileName) == "" {
		errs = append(errs, &ValidationError{
			Field:   "output.file_name",
			Rule:    "required",
			Message: "output file name is required",
		})
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Value:   cfg.Logging.Level,
			Rule:    "oneof(debug,info,warn,error)",
			Message: "unknown log level",
		})
	}

	errs = appendIfNotOneOf(errs, "logging.format", cfg.Logging.Format, "console", "json")

	return errs
}

func appendIfNotOneOf(errs []*ValidationError, field, value string, allowed ...string) []*ValidationError {
	for _, a := range allowed {
		if value == a {
			return errs
		}
	}

	return append(errs, &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    fmt.Sprintf("oneof(%s)", strings.Join(allowed, ",")),
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	})
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
