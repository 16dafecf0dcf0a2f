// =============================================================================
// EFD Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration (config.yaml).
//
// CONFIGURATION SECTIONS:
//   1. Directories: where EFD files are read from, written to and archived
//   2. Logging: log file, level and encoding
//   3. Output: file naming and export format
//   4. Processing: concurrency and error policy
//   5. Input / Export: encodings, file pattern, sheet name, CSV delimiter
//   6. Transformation rules: column-level rewrites applied before export
//
// A missing config file is not an error: every option has a default.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats supported by the process command.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for EFD text files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where generated spreadsheets are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives EFD files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir is used by ArchiveOutput for long-term storage.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr
	// only.
	// Default: "./logs/converter.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "console".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// FileNameFormat defines the format for output file names, without the
	// extension (added from OutputFormat).
	// Placeholders:
	//   {name}      - Input file name without extension
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//
	// CUSTOMIZATION: Define your desired format here.
	// Example: "{name}_{date}_{uuid}"
	// Default: "{name}_{timestamp}"
	FileNameFormat string `yaml:"file_name_format"`

	// OutputFormat is one of "xlsx", "csv", "xml".
	// Default: "xlsx"
	OutputFormat string `yaml:"output_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError determines whether to continue processing other files
	// if one file fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveInputs moves each successfully processed input file to
	// InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// Input describes how EFD files are found and decoded.
	Input InputSettings `yaml:"input"`

	// Export controls the output writers.
	Export ExportSettings `yaml:"export"`

	// TransformationRules are applied to the resolved rows before export.
	//
	// CUSTOMIZATION: Define column rewrites here.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// =============================================================================
// INPUT / EXPORT SETTINGS
// =============================================================================

// InputSettings contains settings for reading EFD files.
type InputSettings struct {
	// Pattern is the glob used to discover files in InputDir.
	// Default: "*.txt"
	Pattern string `yaml:"pattern"`

	// Encoding is the character encoding of the EFD file.
	// Common values: "ISO-8859-1", "Windows-1252", "UTF-8"
	// Default: "ISO-8859-1" (the encoding the PVA produces)
	Encoding string `yaml:"encoding"`
}

// ExportSettings contains settings for the output writers.
type ExportSettings struct {
	// SheetName is the XLSX worksheet name.
	// Default: "EFD"
	SheetName string `yaml:"sheet_name"`

	// CSVDelimiter is the field separator for CSV output.
	// Default: ";"
	CSVDelimiter string `yaml:"csv_delimiter"`

	// CSVEncoding is the character encoding for CSV output.
	// Default: "UTF-8"
	CSVEncoding string `yaml:"csv_encoding"`

	// WriteXSD writes a schema next to every XML output (same name, .xsd).
	// Default: false
	WriteXSD bool `yaml:"write_xsd"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines a transformation to apply to an output column.
type TransformationRule struct {
	// Field is the output column name, e.g. "Conta Contábil".
	Field string `yaml:"field"`

	// Actions is a list of transformations to apply to this column.
	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply.
	// Supported types:
	//   - "prepend_string"      : Add a string to the beginning of the value
	//   - "append_string"       : Add a string to the end of the value
	//   - "pad_zeros_to_length" : Pad with leading zeros to a specific length
	//   - "uppercase"           : Convert to uppercase
	//   - "lowercase"           : Convert to lowercase
	//   - "trim"                : Remove leading and trailing whitespace
	//   - "replace"             : Replace a substring with another
	//   - "regex_replace"       : Replace matches of the regex in Find
	//   - "remove_leading_zeros": Strip leading zeros, keeping one
	//   - "format_date"         : Reformat a dd/mm/yyyy date with a Go layout
	//   - "lookup"              : Replace value using a lookup table
	//   - "lookup_with_default" : Lookup, falling back to Value
	//   - "if_empty_use_default": Use Value when the cell is blank
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used for "replace" transformations.
	Find string `yaml:"find,omitempty"`

	// LookupTable is used for "lookup" transformations.
	// Example:
	//   lookup_table:
	//     "0 - Entrada": "E"
	//     "1 - Saída": "S"
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is present.
func DefaultMainConfig() *MainConfig {
	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		OutputArchiveDir: "./output_archive",
		LogFile:          "./logs/converter.log",
		LogLevel:         "info",
		LogFormat:        "console",
		FileNameFormat:   "{name}_{timestamp}",
		OutputFormat:     FormatXLSX,
		MaxConcurrency:   4,
		ContinueOnError:  true,
		Input: InputSettings{
			Pattern:  "*.txt",
			Encoding: "ISO-8859-1",
		},
		Export: ExportSettings{
			SheetName:    "EFD",
			CSVDelimiter: ";",
			CSVEncoding:  "UTF-8",
		},
	}
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct. Options absent from the file keep
//     their defaults; a missing file yields DefaultMainConfig().
//   - An error if the file cannot be parsed or is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	config := DefaultMainConfig()

	data, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyMainConfigDefaults restores defaults for options explicitly set to
// empty values in the file.
func applyMainConfigDefaults(config *MainConfig) {
	defaults := DefaultMainConfig()

	if config.InputDir == "" {
		config.InputDir = defaults.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = defaults.InputArchiveDir
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = defaults.OutputArchiveDir
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = defaults.LogFormat
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = defaults.FileNameFormat
	}
	if config.OutputFormat == "" {
		config.OutputFormat = defaults.OutputFormat
	}
	config.OutputFormat = strings.ToLower(config.OutputFormat)
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Input.Pattern == "" {
		config.Input.Pattern = defaults.Input.Pattern
	}
	if config.Input.Encoding == "" {
		config.Input.Encoding = defaults.Input.Encoding
	}
	if config.Export.SheetName == "" {
		config.Export.SheetName = defaults.Export.SheetName
	}
	if config.Export.CSVDelimiter == "" {
		config.Export.CSVDelimiter = defaults.Export.CSVDelimiter
	}
	if config.Export.CSVEncoding == "" {
		config.Export.CSVEncoding = defaults.Export.CSVEncoding
	}
}

// validateMainConfig validates the configuration. It does not touch the
// filesystem.
func validateMainConfig(config *MainConfig) error {
	switch config.OutputFormat {
	case FormatXLSX, FormatCSV, FormatXML:
	default:
		return fmt.Errorf("unsupported output_format %q (want xlsx, csv or xml)", config.OutputFormat)
	}

	if len([]rune(config.Export.CSVDelimiter)) != 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", config.Export.CSVDelimiter)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", config.LogLevel)
	}

	for i, rule := range config.TransformationRules {
		if rule.Field == "" {
			return fmt.Errorf("transformation rule %d has no field", i+1)
		}
	}

	return nil
}
