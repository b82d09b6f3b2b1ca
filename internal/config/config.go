// =============================================================================
// Subledger Mapper - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Values come from three
// layers, each overriding the one before it:
//
//   1. Defaults (applyMainConfigDefaults)
//   2. The main config file (config.yaml)
//   3. GLMAP_* environment variables, optionally seeded from a .env file
//
// Command-line flags are applied on top by the cmd package.
//
// A missing config file is not an error: defaults and the environment still
// apply. A config file that exists but cannot be parsed is an error.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "GLMAP_"

// DefaultProductSheet is the worksheet holding the product cross-reference.
const DefaultProductSheet = "DTV_BDS_UB_PRODUCT_MAPPING"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// TransactionsFile is the transaction extract to resolve.
	TransactionsFile string `yaml:"transactions_file"`

	// MappingDir holds the five pipe-delimited rule tables. Files are
	// classified by name (sam, mam, ma, company, ccm).
	// Default: "./mappings"
	MappingDir string `yaml:"mapping_dir"`

	// MappingPattern selects rule-table files inside MappingDir.
	// Default: "*.txt"
	MappingPattern string `yaml:"mapping_pattern"`

	// ProductFile is the workbook holding the product cross-reference.
	ProductFile string `yaml:"product_file"`

	// ProductSheet is the worksheet inside ProductFile.
	// Default: "DTV_BDS_UB_PRODUCT_MAPPING"
	ProductSheet string `yaml:"product_sheet"`

	// TransactionCSV describes the transaction file format.
	// Default: comma, UTF-8, one header row
	TransactionCSV CSVSettings `yaml:"transaction_csv"`

	// MappingCSV describes the rule-table file format.
	// Default: pipe with comma fallback, UTF-8, one header row
	MappingCSV CSVSettings `yaml:"mapping_csv"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir receives the report files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat names each report file.
	// Placeholders:
	//   {name}      - Report name (Grouped_Summary, Detailed_DTL, ...)
	//   {uuid}      - The run id
	//   {timestamp} - Run start (YYYYMMDD_HHMMSS)
	// Default: "{name}_{timestamp}.csv"
	OutputNameFormat string `yaml:"output_name_format"`

	// WriteXLSX also writes one workbook with the three report sheets.
	WriteXLSX bool `yaml:"write_xlsx"`

	// ArchiveInputs copies the transaction file into InputArchiveDir after a
	// successful run.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// InputArchiveDir receives archived inputs.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Workers is the number of shards records are resolved in.
	// Set to 1 for sequential processing.
	// Default: 1
	Workers int `yaml:"workers"`

	// HistoryDB is the SQLite database recording each run. Empty disables
	// run history.
	HistoryDB string `yaml:"history_db"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFile additionally writes JSON logs to this path. Empty logs to
	// stderr only.
	LogFile string `yaml:"log_file"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing delimited files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	Delimiter string `yaml:"delimiter"`

	// FallbackDelimiter is tried when Delimiter yields a single column that
	// still contains the fallback. Empty disables the retry.
	FallbackDelimiter string `yaml:"fallback_delimiter"`

	// Encoding is the character encoding of the file.
	// Valid values: see SupportedEncodings
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// HeaderRows is the number of header rows before the data.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// SupportedEncodings lists the accepted Encoding values (case-insensitive).
var SupportedEncodings = []string{
	"UTF-8",
	"UTF-16",
	"UTF-16LE",
	"UTF-16BE",
	"ISO-8859-1",
	"LATIN1",
	"WINDOWS-1252",
	"CP1252",
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML config file. Missing is not an error.
//   - envFiles: Optional .env files. When none is given a .env in the
//     working directory is loaded if present.
//
// RETURNS:
//   - A pointer to the validated MainConfig.
//   - An error if the file cannot be parsed, an override is malformed, or
//     validation fails.
func LoadMainConfig(configPath string, envFiles ...string) (*MainConfig, error) {
	var config MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults and environment only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// Validate re-checks the configuration, e.g. after flags were applied.
func (c *MainConfig) Validate() error {
	return validateMainConfig(c)
}

func loadEnvFiles(envFiles []string) error {
	var explicit []string
	for _, file := range envFiles {
		if file != "" {
			explicit = append(explicit, file)
		}
	}

	if len(explicit) == 0 {
		// Optional .env in the working directory.
		_ = godotenv.Load()
		return nil
	}

	if err := godotenv.Load(explicit...); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// applyEnvOverrides copies set GLMAP_* variables over file values.
func applyEnvOverrides(config *MainConfig) error {
	stringVars := map[string]*string{
		"TRANSACTIONS_FILE":  &config.TransactionsFile,
		"MAPPING_DIR":        &config.MappingDir,
		"MAPPING_PATTERN":    &config.MappingPattern,
		"PRODUCT_FILE":       &config.ProductFile,
		"PRODUCT_SHEET":      &config.ProductSheet,
		"OUTPUT_DIR":         &config.OutputDir,
		"OUTPUT_NAME_FORMAT": &config.OutputNameFormat,
		"INPUT_ARCHIVE_DIR":  &config.InputArchiveDir,
		"HISTORY_DB":         &config.HistoryDB,
		"LOG_LEVEL":          &config.LogLevel,
		"LOG_FILE":           &config.LogFile,
	}
	for key, target := range stringVars {
		if value, ok := lookupEnv(key); ok {
			*target = value
		}
	}

	boolVars := map[string]*bool{
		"WRITE_XLSX":     &config.WriteXLSX,
		"ARCHIVE_INPUTS": &config.ArchiveInputs,
	}
	for key, target := range boolVars {
		value, ok := lookupEnv(key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s%s: %s", EnvPrefix, key, value)
		}
		*target = parsed
	}

	if value, ok := lookupEnv("WORKERS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %sWORKERS: %s", EnvPrefix, value)
		}
		config.Workers = parsed
	}

	return nil
}

// lookupEnv returns a non-empty GLMAP_ variable.
func lookupEnv(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	return value, value != ""
}

// applyMainConfigDefaults sets default values for any unset configuration
// options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.MappingDir == "" {
		config.MappingDir = "./mappings"
	}
	if config.MappingPattern == "" {
		config.MappingPattern = "*.txt"
	}
	if config.ProductSheet == "" {
		config.ProductSheet = DefaultProductSheet
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{name}_{timestamp}.csv"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.Workers == 0 {
		config.Workers = 1
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	applyCSVDefaults(&config.TransactionCSV, ",", "")
	applyCSVDefaults(&config.MappingCSV, "|", ",")
}

func applyCSVDefaults(settings *CSVSettings, delimiter, fallback string) {
	if settings.Delimiter == "" {
		settings.Delimiter = delimiter
		if settings.FallbackDelimiter == "" {
			settings.FallbackDelimiter = fallback
		}
	}
	if settings.Encoding == "" {
		settings.Encoding = "UTF-8"
	}
	if settings.HeaderRows == 0 {
		settings.HeaderRows = 1
	}
}

// validateMainConfig validates the main configuration. It does not touch the
// filesystem; directories are created when a run writes output.
func validateMainConfig(config *MainConfig) error {
	var problems []string

	if config.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", config.Workers))
	}

	if !contains(validLogLevels, strings.ToLower(config.LogLevel)) {
		problems = append(problems, fmt.Sprintf("unknown log_level %q", config.LogLevel))
	}

	if !strings.Contains(config.OutputNameFormat, "{name}") {
		problems = append(problems, "output_name_format must contain {name}")
	}

	for name, settings := range map[string]CSVSettings{
		"transaction_csv": config.TransactionCSV,
		"mapping_csv":     config.MappingCSV,
	} {
		if settings.HeaderRows < 1 {
			problems = append(problems, fmt.Sprintf("%s.header_rows must be at least 1", name))
		}
		if !contains(SupportedEncodings, strings.ToUpper(settings.Encoding)) {
			problems = append(problems, fmt.Sprintf("%s.encoding %q is not supported", name, settings.Encoding))
		}
	}

	if len(problems) > 0 {
		// Sorted for a stable message regardless of map order.
		sort.Strings(problems)
		return errors.New(strings.Join(problems, "; "))
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
