// =============================================================================
// EFD Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// converting EFD files. It orchestrates the run over every input file.
//
// COMMAND USAGE:
//   efdconv process [flags]
//
// FLAGS:
//   --dry-run : Resolve and validate without writing output or archiving
//   --file    : Process only this file instead of scanning the input directory
//   --format  : Override output_format (xlsx, csv, xml)
//
// PROCESSING PIPELINE:
//   1. Discover EFD files in the input directory
//   2. For each file (at most max_concurrency at once):
//      a. Decode the file
//      b. Resolve the record hierarchy into rows
//      c. Apply transformation rules
//      d. Validate the rows
//      e. Write the output file
//      f. Archive the input
//   3. Write the issue log and the summary report
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun resolves and validates without writing output files.
var dryRun bool

// filePath is a specific file to process.
var filePath string

// outputFormat overrides the configured output format.
var outputFormat string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process EFD files and convert them to spreadsheets",
	Long: `The process command scans the input directory for EFD files and converts
each one into a flat sheet, one row per document item.

Files are processed concurrently (max_concurrency). Problems inside a file
(short lines, unknown participant or product codes, orphan records) never
stop it: they are logged and written to an issue log.

On successful processing:
  - The generated file is placed in the output directory
  - The original EFD file is moved to the input archive (archive_inputs)
  - A summary report is generated

On error:
  - The original file remains in the input directory
  - Processing continues for other files unless continue_on_error is false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Resolve and validate without writing output files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a specific EFD file to process",
	)

	processCmd.Flags().StringVar(
		&outputFormat,
		"format",
		"",
		"Output format: xlsx, csv or xml (overrides output_format)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess discovers the input files, converts them concurrently and
// writes the issue and summary logs.
func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	conv, err := converter.New(mainConfig, logger, converter.Options{
		Format: outputFormat,
		DryRun: dryRun,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles(mainConfig.Input.Pattern)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No EFD files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	logger.Info("processing started",
		zap.Int("files", len(inputFiles)),
		zap.String("format", conv.Format()),
		zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Each worker writes only its own slot, so results keep discovery order.

	results := make([]converter.Result, len(inputFiles))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range inputFiles {
		g.Go(func() error {
			results[i] = conv.Run(ctx, file)
			if err := results[i].Error; err != nil && !mainConfig.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(file), err)
			}
			return nil
		})
	}
	groupErr := g.Wait()

	// =========================================================================
	// STEP 3: COLLECT RESULTS AND WRITE REPORTS
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}
	var entries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		entries = append(entries, result.LogEntries()...)
		summary.TotalLines += result.Stats.LinesRead
		summary.TotalRows += result.Stats.RowsEmitted
		summary.TotalIssues += len(result.Issues)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: fmt.Sprint(result.Error),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}

		summary.SuccessfulFiles++
		if result.NoData {
			summary.NoDataFiles++
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			ArchivePath: result.ArchivePath,
			Lines:       result.Stats.LinesRead,
			Rows:        result.Stats.RowsEmitted,
			Issues:      len(result.Issues),
			NoData:      result.NoData,
			ProcessTime: result.Stats.ProcessingTime,
		})

		switch {
		case result.NoData:
			fmt.Fprintf(out, "  - %s: no data processed\n", name)
		case result.OutputFile == "":
			fmt.Fprintf(out, "  ✓ %s: %d row(s), %d issue(s)\n", name, result.Stats.RowsEmitted, len(result.Issues))
		default:
			fmt.Fprintf(out, "  ✓ %s -> %s (%d row(s), %d issue(s))\n",
				name, filepath.Base(result.OutputFile), result.Stats.RowsEmitted, len(result.Issues))
		}
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "No data:         %d\n", summary.NoDataFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Rows:            %d\n", summary.TotalRows)
	fmt.Fprintf(out, "Issues:          %d\n", summary.TotalIssues)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if logPath, err := utils.WriteErrorLog(entries, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write issue log", zap.Error(err))
		} else if logPath != "" {
			fmt.Fprintf(out, "Issue log:       %s\n", logPath)
		}

		if summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write summary", zap.Error(err))
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", summaryPath)
		}
	}

	logger.Info("processing complete",
		zap.Int("successful", summary.SuccessfulFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.Int("rows", summary.TotalRows),
		zap.Int("issues", summary.TotalIssues))

	return groupErr
}
