// Package combine merges delimited text files that share an extension into
// a single file with a chosen output delimiter.
//
// A run has four stages: Discover lists candidate files, ParseFile loads
// each into a Table, Merge concatenates them under the union of their
// columns, and WriteCombinedFile emits the result. A file that fails to
// parse is reported and skipped; it never stops the other files.
package combine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"csvcombine/pkg/ignore"

	"go.uber.org/zap"
)

// RunCombine executes one combine run. Operator-facing messages go to out;
// structured logs go to logger. It returns ErrNoFiles or ErrNoValidTables
// when the run stops early without writing, and a wrapped error when the
// output cannot be written.
func RunCombine(args Arguments, logger *zap.Logger, out io.Writer) (*Summary, error) {
	startTime := time.Now()
	if logger == nil {
		logger = zap.NewNop()
	}

	args.Extension = NormalizeExtension(args.Extension)
	if err := args.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	logger.Info("Starting combination process",
		zap.String("directory", args.Directory),
		zap.String("extension", args.Extension),
		zap.String("inputDelimiter", DelimiterName(args.InputDelimiter)),
		zap.String("outputDelimiter", DelimiterName(args.OutputDelimiter)))

	summary := &Summary{Extension: args.Extension}
	defer func() { summary.Elapsed = time.Since(startTime) }()

	gi, err := ignore.LoadIgnoreFiles(args.Directory, args.ExcludePatterns, logger)
	if err != nil {
		logger.Error("Failed to load exclusion patterns", zap.Error(err))
		return summary, err
	}

	files, err := Discover(args.Directory, args.Extension, args.OutputPrefix, gi, logger)
	if err != nil {
		logger.Error("Failed to collect files", zap.Error(err))
		return summary, fmt.Errorf("failed to collect files: %w", err)
	}
	summary.Files = files

	if len(files) == 0 {
		fmt.Fprintf(out, "No %s files found in %s.\n", args.Extension, directoryLabel(args.Directory))
		logger.Warn("No files to process after filtering", zap.String("extension", args.Extension))
		return summary, ErrNoFiles
	}

	tables := parseFiles(args, files, summary, logger, out)
	if errs := summary.Err(); errs != nil {
		logger.Warn("Some files were skipped", zap.Int("skipped", len(summary.Failures)), zap.Error(errs))
	}

	if len(tables) == 0 {
		fmt.Fprintln(out, "No valid CSV files found to combine.")
		logger.Warn("Every candidate file failed to parse", zap.Int("candidates", len(files)))
		return summary, ErrNoValidTables
	}

	merged := Merge(tables)
	summary.Columns = len(merged.Columns)
	summary.DataRows = len(merged.Rows)
	summary.OutputPath = filepath.Join(args.Directory, args.OutputName())

	if err := emit(args, merged, summary, logger, out); err != nil {
		return summary, err
	}

	logger.Info("Combination process completed",
		zap.String("outputFile", summary.OutputPath),
		zap.Int("files", len(summary.Parsed)),
		zap.Int("totalRows", summary.TotalRows),
		zap.Duration("elapsed", time.Since(startTime)))
	return summary, nil
}

// directoryLabel names dir for operator messages.
func directoryLabel(dir string) string {
	if dir == "" || filepath.Clean(dir) == "." {
		return "the current directory"
	}
	return "directory " + dir
}

// IsGracefulStop reports whether err is one of the early, non-failing stops.
func IsGracefulStop(err error) bool {
	return errors.Is(err, ErrNoFiles) || errors.Is(err, ErrNoValidTables)
}
