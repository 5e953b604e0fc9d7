// =============================================================================
// IFRS Report - File Manager Utility
// =============================================================================
//
// This module provides the file utilities used by the report command:
//   - Reading the extract from a path or standard input
//   - Directory management
//   - Output file naming
//   - Atomic output writes (temporary file + rename)
//
// The HTTP server never touches the filesystem; workbooks are streamed from
// memory. Only the command line writes files, and only through this module.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StdinPath selects standard input in ReadInput.
const StdinPath = "-"

// OutputExtension is enforced on generated output file names.
const OutputExtension = ".xlsx"

// now is replaced in tests.
var now = time.Now

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the report command.
type FileManager struct {
	// OutputDir is the directory where workbooks are written.
	OutputDir string
}

// NewFileManager creates a new FileManager instance.
func NewFileManager(outputDir string) *FileManager {
	if outputDir == "" {
		outputDir = "."
	}
	return &FileManager{OutputDir: outputDir}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// WriteOutput writes data to name inside the output directory.
//
// PARAMETERS:
//   - name: The file name, without directory.
//   - data: The file content.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
//
// The data is written to a temporary file in the same directory and renamed
// into place, so an existing file is never left half-written.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	target := filepath.Join(fm.OutputDir, filepath.Base(name))

	tmp, err := os.CreateTemp(fm.OutputDir, ".ifrs-report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set permissions on %s: %w", target, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move output to %s: %w", target, err)
	}

	return target, nil
}

// =============================================================================
// INPUT
// =============================================================================

// ReadInput reads the whole extract from path, or from stdin when path is
// StdinPath.
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//   - params: Additional placeholder values, e.g. {"rate": "950"} for {rate}.
//
// RETURNS:
//   - The generated file name, always ending in .xlsx.
//
// EXAMPLE:
//   format: "empresas_grandes_ifrs_{date}.xlsx"
//   output: "empresas_grandes_ifrs_20240115.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	t := now()

	replacements := map[string]string{
		"{timestamp}": t.Format("20060102_150405"),
		"{date}":      t.Format("20060102"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), OutputExtension) {
		result += OutputExtension
	}

	return result
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
