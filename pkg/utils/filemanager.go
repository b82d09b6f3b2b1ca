// =============================================================================
// Subledger Mapper - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a run:
//   - Mapping file discovery
//   - Input archival (copying the processed transaction file)
//   - Output file naming
//   - The plain-text run summary
//   - Directory management
//
// ARCHIVAL STRATEGY:
//   - The transaction file is copied to input_archive after a successful run
//   - The source file stays in place; mapping tables are reference data and are
//     never archived
//   - Failed runs archive nothing
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the layout of the {timestamp} placeholder.
const TimestampLayout = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// OutputDir is the directory where report files are placed.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/transactions.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output and archive directories if they don't
// exist. Empty paths are skipped.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverFiles lists the regular files in dir matching the glob pattern, in
// lexical order.
//
// PARAMETERS:
//   - dir: The directory to scan.
//   - pattern: A glob pattern (e.g., "*.txt"). If empty, defaults to "*".
//
// RETURNS:
//   - A sorted slice of file paths.
//   - An error if the directory does not exist or the pattern is malformed.
func DiscoverFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to scan directory: %s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}

	var result []string
	for _, file := range matches {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile copies an input file into the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//   - now: The run time, used for date-based subdirectories.
//
// RETURNS:
//   - The path to the archived copy.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string, now time.Time) (string, error) {
	archivePath := fm.archivePath(filePath, now)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string, now time.Time) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.InputArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands an output name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {timestamp} - now as YYYYMMDD_HHMMSS
//               {date}      - now as YYYYMMDD
//               {time}      - now as HHMMSS
//               {<key>}     - any key of params ({name}, {uuid}, ...)
//   - params: A map of placeholder values.
//   - now: The time the placeholders are rendered from.
//   - ext: When non-empty, replaces the extension the format produced.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{name}_{timestamp}.csv"
//   params: {"name": "Grouped_Summary"}
//   output: "Grouped_Summary_20240115_143022.csv"
func GenerateOutputFileName(format string, params map[string]string, now time.Time, ext string) string {
	pairs := []string{
		"{timestamp}", now.Format(TimestampLayout),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", params[key])
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if ext != "" {
		result = strings.TrimSuffix(result, filepath.Ext(result)) + ext
	}

	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a processing run.
type RunSummary struct {
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	TransactionsFile string
	MappingFiles     []string
	ProductFile      string
	Records          int
	Groups           int
	Unmatched        int
	TotalDebit       string
	TotalCredit      string
	OutputFiles      []string
	ArchivePath      string
}

// WriteSummaryLog writes a processing summary next to the reports.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", summary.StartTime.Format(TimestampLayout))
	summaryPath := filepath.Join(outputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Subledger Mapper - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Inputs:\n"+
		"  Transactions:   %s\n"+
		"  Product Sheet:  %s\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TransactionsFile,
		summary.ProductFile)
	for _, mappingFile := range summary.MappingFiles {
		fmt.Fprintf(writer, "  Mapping File:   %s\n", mappingFile)
	}

	fmt.Fprintf(writer, "\nStatistics:\n"+
		"  DTL Records:    %d\n"+
		"  Groups:         %d\n"+
		"  Unmatched:      %d\n"+
		"  Total Debit:    %s\n"+
		"  Total Credit:   %s\n\n",
		summary.Records,
		summary.Groups,
		summary.Unmatched,
		summary.TotalDebit,
		summary.TotalCredit)

	if len(summary.OutputFiles) > 0 {
		writer.WriteString("Output Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, output := range summary.OutputFiles {
			fmt.Fprintf(writer, "  %s\n", output)
		}
		writer.WriteString("\n")
	}

	if summary.ArchivePath != "" {
		fmt.Fprintf(writer, "Archived Input:   %s\n\n", summary.ArchivePath)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
