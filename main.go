// =============================================================================
// IFRS Report - Main Entry Point
// =============================================================================
//
// USAGE:
//   ifrs-report report FILE --rate R  - Preview and export the large companies report
//   ifrs-report serve                 - Start the upload page and report API
//   ifrs-report config                - Print the effective configuration
//   ifrs-report version               - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, conversion, preview, export and HTTP server
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ifrs-report/cmd"
)

func main() {
	cmd.Execute()
}
