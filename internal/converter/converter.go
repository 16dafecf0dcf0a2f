// =============================================================================
// EFD Converter - Converter Module
// =============================================================================
//
// This module contains the per-file conversion pipeline. It orchestrates the
// whole run for one EFD file, from decoding to the exported sheet.
//
// CONVERSION PIPELINE:
//   1. Read and decode the EFD text file
//   2. Resolve the record hierarchy into flat rows
//   3. Apply transformation rules to the rows
//   4. Validate the rows
//   5. Write the output file (xlsx, csv or xml)
//   6. Archive the processed files
//
// A file that yields no rows is a success with nothing written
// ("no data processed").
//
// CONCURRENCY:
//   A Converter holds no per-file state. The process command shares one
//   Converter across its worker goroutines.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/csvwriter"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/efdparser"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/resolver"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/xlsxwriter"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/xmlwriter"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated file.
	// This is empty if processing failed, found no data or was a dry run.
	OutputFile string

	// SchemaFile is the XSD written next to an XML output, if any.
	SchemaFile string

	// ArchivePath is where the input file was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// NoData is set when the file produced no rows.
	NoData bool

	// Error contains the error if processing failed.
	Error error

	// Issues are the resolver and validation findings, in that order.
	Issues []*validation.Issue

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// LinesRead is the number of lines in the input file.
	LinesRead int

	// RowsEmitted is the number of rows produced by the resolver.
	RowsEmitted int

	// RowsByFamily counts rows per record family ("C100", ...).
	RowsByFamily map[string]int

	// Participants and Products are the reference table sizes.
	Participants int
	Products     int

	// SkippedLines counts lines whose record type no family handles.
	SkippedLines int

	// ResolveIssues is the number of lines the resolver absorbed.
	ResolveIssues int

	// ValidationWarnings and ValidationErrors count row check findings.
	ValidationWarnings int
	ValidationErrors   int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// LogEntries converts the result's issues into error log entries.
func (r Result) LogEntries() []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(r.Issues))
	now := time.Now()
	for _, issue := range r.Issues {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     filepath.Base(r.FilePath),
			Severity:     issue.Severity,
			ErrorType:    string(issue.Kind),
			ErrorMessage: issue.Message,
			RecordTag:    issue.Tag,
			LineNumber:   issue.Line,
			FieldName:    issue.Column,
			FieldValue:   issue.Value,
			RawLine:      issue.Raw,
		})
	}
	return entries
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options adjusts a Converter beyond the main configuration.
type Options struct {
	// Format overrides MainConfig.OutputFormat when set.
	Format string

	// DryRun resolves and validates without writing or archiving.
	DryRun bool
}

// Converter handles the conversion of EFD files.
type Converter struct {
	mainConfig  *config.MainConfig
	transformer *Transformer
	validator   *validation.Validator
	files       *utils.FileManager
	format      string
	dryRun      bool
	logger      *zap.Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - mainConfig: The main application configuration.
//   - logger: The logger (nil disables logging).
//   - options: Format override and dry-run switch.
//
// RETURNS:
//   - A new Converter instance.
//   - An error if the format or the transformation rules are invalid.
func New(mainConfig *config.MainConfig, logger *zap.Logger, options Options) (*Converter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	format := strings.ToLower(options.Format)
	if format == "" {
		format = mainConfig.OutputFormat
	}
	switch format {
	case config.FormatXLSX, config.FormatCSV, config.FormatXML:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	transformer, err := NewTransformer(mainConfig.TransformationRules)
	if err != nil {
		return nil, err
	}

	return &Converter{
		mainConfig:  mainConfig,
		transformer: transformer,
		validator:   validation.NewValidator(),
		files: utils.NewFileManager(
			mainConfig.InputDir,
			mainConfig.OutputDir,
			mainConfig.InputArchiveDir,
			mainConfig.OutputArchiveDir,
		),
		format: format,
		dryRun: options.DryRun,
		logger: logger,
	}, nil
}

// Format returns the output format the converter writes.
func (c *Converter) Format() string {
	return c.format
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for one file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
//
// The context is checked between steps; a cancelled run fails with the
// context's error and leaves the input file in place.
func (c *Converter) Run(ctx context.Context, inputPath string) Result {
	startTime := time.Now()
	result := Result{FilePath: inputPath}
	log := c.logger.With(zap.String("file", filepath.Base(inputPath)))

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		log.Error("processing failed", zap.Error(err))
		return result
	}

	log.Info("processing file")

	// =========================================================================
	// STEP 1: READ THE EFD FILE
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	data, err := efdparser.Parse(inputPath, c.mainConfig.Input)
	if err != nil {
		return fail(fmt.Errorf("failed to read EFD file: %w", err))
	}
	log.Debug("decoded file", zap.Int("lines", data.LineCount))

	// =========================================================================
	// STEP 2: RESOLVE THE RECORD HIERARCHY
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	resolved := resolver.New(log).Resolve(data.Lines)
	result.Issues = append(result.Issues, resolved.Issues...)
	result.Stats.LinesRead = resolved.Stats.Lines
	result.Stats.RowsEmitted = resolved.Stats.Rows
	result.Stats.RowsByFamily = resolved.Stats.RowsByFamily
	result.Stats.Participants = resolved.Stats.Participants
	result.Stats.Products = resolved.Stats.Products
	result.Stats.SkippedLines = resolved.Stats.Skipped
	result.Stats.ResolveIssues = resolved.Stats.Issues

	if resolved.NoData() {
		log.Info("no data processed")
		result.NoData = true
		return c.finish(log, result, startTime)
	}

	// =========================================================================
	// STEP 3: APPLY TRANSFORMATION RULES
	// =========================================================================

	rows, err := c.transformer.TransformRows(resolved.Rows)
	if err != nil {
		return fail(fmt.Errorf("failed to apply transformations: %w", err))
	}
	if c.transformer.Len() > 0 {
		log.Debug("applied transformation rules", zap.Int("rules", c.transformer.Len()))
	}

	// =========================================================================
	// STEP 4: VALIDATE ROWS
	// =========================================================================

	validated := c.validator.ValidateAll(rows)
	result.Issues = append(result.Issues, validated.Issues...)
	result.Stats.ValidationWarnings = validated.WarningCount
	result.Stats.ValidationErrors = validated.ErrorCount

	for _, issue := range validated.Issues {
		log.Warn("row check failed", zap.String("issue", issue.Error()))
	}
	if !validated.IsValid && !c.mainConfig.ContinueOnError {
		return fail(fmt.Errorf("validation failed with %d errors", validated.ErrorCount))
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILE
	// =========================================================================

	if c.dryRun {
		log.Info("dry run, nothing written", zap.Int("rows", len(rows)))
		return c.finish(log, result, startTime)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	outputPath, schemaPath, err := c.writeOutput(inputPath, rows)
	if err != nil {
		return fail(fmt.Errorf("failed to write output: %w", err))
	}
	result.OutputFile = outputPath
	result.SchemaFile = schemaPath
	log.Info("wrote output", zap.String("output", outputPath), zap.Int("rows", len(rows)))

	return c.finish(log, result, startTime)
}

// finish archives the processed files and marks the result successful.
// Archive failures are logged; they do not fail the file.
func (c *Converter) finish(log *zap.Logger, result Result, startTime time.Time) Result {
	if c.mainConfig.ArchiveInputs && !c.dryRun {
		archivePath, err := c.files.ArchiveInputFile(result.FilePath)
		if err != nil {
			log.Warn("failed to archive input", zap.Error(err))
		} else {
			result.ArchivePath = archivePath
		}

		if result.OutputFile != "" {
			if _, err := c.files.ArchiveOutputFile(result.OutputFile); err != nil {
				log.Warn("failed to archive output", zap.Error(err))
			}
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	log.Debug("file done",
		zap.Int("rows", result.Stats.RowsEmitted),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("elapsed", result.Stats.ProcessingTime))
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeOutput writes rows in the configured format to the output directory.
//
// RETURNS:
//   - The path to the output file.
//   - The path to the XSD written alongside XML output ("" otherwise).
//   - An error if the file cannot be written.
//
// FILE NAMING:
//   The output file is named by utils.GenerateOutputFileName from
//   MainConfig.FileNameFormat; the extension follows the format.
func (c *Converter) writeOutput(inputPath string, rows []types.Row) (string, string, error) {
	fileName := utils.GenerateOutputFileName(c.mainConfig.FileNameFormat, inputPath, c.format)
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)
	export := c.mainConfig.Export

	switch c.format {
	case config.FormatCSV:
		delimiter := ';'
		if r := []rune(export.CSVDelimiter); len(r) == 1 {
			delimiter = r[0]
		}
		err := csvwriter.WriteFile(rows, outputPath, csvwriter.Options{
			Delimiter: delimiter,
			Encoding:  export.CSVEncoding,
		})
		return outputPath, "", err

	case config.FormatXML:
		options := xmlwriter.DefaultOptions()
		if err := xmlwriter.WriteFile(rows, outputPath, options); err != nil {
			return "", "", err
		}
		if !export.WriteXSD {
			return outputPath, "", nil
		}
		schemaPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".xsd"
		if err := os.WriteFile(schemaPath, xmlwriter.GenerateXSD(options), 0644); err != nil {
			return "", "", fmt.Errorf("failed to write schema: %w", err)
		}
		return outputPath, schemaPath, nil

	default:
		options := xlsxwriter.DefaultOptions()
		if export.SheetName != "" {
			options.SheetName = export.SheetName
		}
		err := xlsxwriter.Write(rows, outputPath, options)
		return outputPath, "", err
	}
}
