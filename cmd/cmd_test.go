package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/ifrs-report/internal/converter"
	"github.com/ginjaninja78/ifrs-report/pkg/utils"
	"github.com/spf13/pflag"
)

const extract = "202312;76543210;Alfa S.A.;C;CLP;Ingresos de actividades ordinarias;40000000000;ifrs-full;CMF\n" +
	"202312;11111111;Beta Ltda.;C;USD;Ingresos de actividades ordinarias;50000000;ifrs-full;CMF\n" +
	"202312;22222222;Gamma SpA;C;CLP;Ingresos de actividades ordinarias;1000;ifrs-full;CMF\n"

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error"))
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return stdout.String(), err
}

// resetFlags restores every flag so that bound values do not leak between
// executions of the shared root command.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func writeExtract(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ifrs.txt")
	if err := os.WriteFile(path, []byte(extract), 0o644); err != nil {
		t.Fatalf("failed to write extract: %v", err)
	}
	return path
}

func TestReportJSONPreviewAndExport(t *testing.T) {
	out := t.TempDir()

	stdout, err := execute(t, "", "report", writeExtract(t),
		"--rate", "1000", "--preview", "json", "--out", out, "--no-export=false")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}

	var doc previewDocument
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("failed to decode preview %q: %v", stdout, err)
	}
	if doc.Title != converter.Title {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Message != "Se encontraron 2 empresas sobre 40,000,000 USD." {
		t.Errorf("unexpected message %q", doc.Message)
	}
	if len(doc.Rows) != 2 || doc.Rows[0].CodigoEntidad != "11111111" || doc.Rows[1].CodigoEntidad != "76543210" {
		t.Errorf("unexpected rows %+v", doc.Rows)
	}

	if !utils.FileExists(filepath.Join(out, "empresas_grandes_ifrs.xlsx")) {
		t.Error("expected the workbook in the output directory")
	}
}

func TestReportFromStdinWithoutExport(t *testing.T) {
	out := t.TempDir()

	stdout, err := execute(t, extract, "report", utils.StdinPath,
		"--rate", "1000", "--preview", "markdown", "--out", out, "--no-export")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}

	for _, want := range []string{"# " + converter.Title, "| codigo_entidad |", "$50,000,000", "Alfa S.A."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected markdown preview to contain %q, got:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Gamma SpA") {
		t.Error("expected entity below the threshold to be excluded")
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("failed to list output directory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no workbook with --no-export, found %d entries", len(entries))
	}
}

func TestReportRejectsInvalidRate(t *testing.T) {
	tests := []struct {
		name string
		rate string
	}{
		{"Below range", "99"},
		{"Above range", "2001"},
		{"Zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", "report", writeExtract(t),
				"--rate", tt.rate, "--preview", "none", "--no-export")
			if err == nil || !strings.Contains(err.Error(), "between 100 and 2000") {
				t.Errorf("expected rate range error, got %v", err)
			}
		})
	}
}

func TestReportRejectsUnknownPreview(t *testing.T) {
	_, err := execute(t, "", "report", writeExtract(t),
		"--rate", "950", "--preview", "html", "--no-export")
	if err == nil || !strings.Contains(err.Error(), "output.preview") {
		t.Errorf("expected configuration error for output.preview, got %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	stdout, err := execute(t, "", "config")
	if err != nil {
		t.Fatalf("config returned error: %v", err)
	}

	for _, want := range []string{"malformed_rows: reject", "encoding: utf-8", "max_upload_size: 32MiB"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected configuration to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	if !strings.Contains(stdout, "Version:    "+Version) {
		t.Errorf("unexpected version output %q", stdout)
	}
}
