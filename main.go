// =============================================================================
// EFD Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the EFD Converter CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   efdconv process         - Convert every EFD file in the input directory
//   efdconv inspect <file>  - Print row counts and issues for one file
//   efdconv version         - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (reading, resolving, validating, writing)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/cmd"
)

func main() {
	cmd.Execute()
}
