// File: pkg/combine/execute.go
package combine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// parseFiles parses every candidate in order. Failures are reported to out,
// diagnosed and recorded in summary; the returned tables keep discovery order.
func parseFiles(args Arguments, files []string, summary *Summary, logger *zap.Logger, out io.Writer) []*Table {
	var tables []*Table
	for _, name := range files {
		fmt.Fprintf(out, "Processing file: %s\n", name)
		path := filepath.Join(args.Directory, name)

		table, err := ParseFile(path, args.InputDelimiter, logger)
		if err != nil {
			summary.Failures = append(summary.Failures, reportParseFailure(name, path, args.InputDelimiter, err, logger, out))
			continue
		}

		tables = append(tables, table)
		summary.Parsed = append(summary.Parsed, name)
		summary.TotalRows += len(table.Rows)
		if args.CountHeaders {
			summary.TotalRows++
		}
	}
	return tables
}

// reportParseFailure prints the failure and, for content errors, the first
// offending line found by OffendingLine.
func reportParseFailure(name, path string, delimiter rune, err error, logger *zap.Logger, out io.Writer) *ParseError {
	fmt.Fprintf(out, "Error parsing file '%s': %v\n", name, err)
	logger.Warn("Failed to parse file", zap.String("file", name), zap.Error(err))

	pe := &ParseError{File: name, Err: err}
	if errors.Is(err, ErrBinaryFile) || errors.Is(err, ErrEmptyFile) {
		return pe
	}

	line, diagErr := OffendingLine(path, delimiter, err)
	if diagErr != nil {
		logger.Debug("Diagnostic pass stopped", zap.String("file", name), zap.Error(diagErr))
	}
	if line > 0 {
		pe.Line = line
		fmt.Fprintf(out, "Skipped line %d in file '%s' due to parsing error.\n", line, name)
	}
	return pe
}

// emit writes the merged table, or only reports on a dry run, then prints
// the summary lines.
func emit(args Arguments, merged *Table, summary *Summary, logger *zap.Logger, out io.Writer) error {
	name := args.OutputName()
	if args.DryRun {
		fmt.Fprintf(out, "Dry run: %d files would be combined. Output file: %s\n", len(summary.Parsed), name)
		fmt.Fprintf(out, "Total rows combined: %d\n", summary.TotalRows)
		logger.Info("Dry run, output not written", zap.String("outputFile", summary.OutputPath))
		return nil
	}

	if err := WriteCombinedFile(summary.OutputPath, merged, args.OutputDelimiter, args.EscapeChar, logger); err != nil {
		logger.Error("Failed to write combined file", zap.String("combinedFile", summary.OutputPath), zap.Error(err))
		return fmt.Errorf("failed to write combined file: %w", err)
	}
	summary.Written = true

	fmt.Fprintf(out, "CSV files successfully combined. Output file: %s\n", name)
	fmt.Fprintf(out, "Total rows combined: %d\n", summary.TotalRows)
	return nil
}
