package validation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ginjaninja78/ifrs-report/internal/config"
)

func TestValidateExchangeRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantErr bool
	}{
		{"Lower bound", 100, false},
		{"Upper bound", 2000, false},
		{"Typical", 950, false},
		{"Fractional inside range", 937.45, false},
		{"Below range", 99.99, true},
		{"Above range", 2000.01, true},
		{"Zero", 0, true},
		{"Negative", -1000, true},
		{"NaN", math.NaN(), true},
		{"Infinity", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExchangeRate(tt.rate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateExchangeRate(%v) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
			}
			if err != nil {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) || validationErr.Field != "rate" {
					t.Errorf("expected a rate *ValidationError, got %T %v", err, err)
				}
			}
		})
	}
}

func TestParseExchangeRate(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"950", 950, false},
		{" 1000.5 ", 1000.5, false},
		{"", 0, false},
		{"  ", 0, false},
		{"mil", 0, true},
		{"1.000", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rate, err := ParseExchangeRate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExchangeRate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if rate != tt.expected {
				t.Errorf("ParseExchangeRate(%q) = %v, expected %v", tt.input, rate, tt.expected)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	if errs := ValidateConfig(config.Default()); len(errs) != 0 {
		t.Fatalf("default configuration should be valid, got:\n%s", FormatErrors(errs))
	}

	cfg := config.Default()
	cfg.Input.Encoding = "klingon"
	cfg.Input.MalformedRows = "ignore"
	cfg.Output.Preview = "pdf"
	cfg.Output.FileName = " "
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"

	errs := ValidateConfig(cfg)

	expectedFields := []string{
		"input.encoding",
		"input.malformed_rows",
		"output.preview",
		"output.file_name",
		"logging.level",
		"logging.format",
	}
	if len(errs) != len(expectedFields) {
		t.Fatalf("expected %d errors, got %d:\n%s", len(expectedFields), len(errs), FormatErrors(errs))
	}
	for i, field := range expectedFields {
		if errs[i].Field != field {
			t.Errorf("error %d: field %q, expected %q", i, errs[i].Field, field)
		}
	}
}

func TestValidateConfigAcceptsEncodingLabels(t *testing.T) {
	for _, label := range []string{"utf-8", "utf8", "windows-1252", "latin1", "iso-8859-1"} {
		cfg := config.Default()
		cfg.Input.Encoding = label
		if errs := ValidateConfig(cfg); len(errs) != 0 {
			t.Errorf("encoding %q rejected:\n%s", label, FormatErrors(errs))
		}
	}
}

func TestFormatErrors(t *testing.T) {
	if FormatErrors(nil) != "No validation errors." {
		t.Errorf("unexpected empty output %q", FormatErrors(nil))
	}

	out := FormatErrors([]*ValidationError{
		{Field: "rate", Value: "5", Message: "too low"},
	})
	if !strings.Contains(out, "1 error(s)") || !strings.Contains(out, "1. field 'rate': too low (value: '5')") {
		t.Errorf("unexpected output %q", out)
	}
}
