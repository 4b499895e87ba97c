package combine

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Sentinel results for runs that stop early without failing.
var (
	ErrNoFiles       = errors.New("no matching files found")
	ErrNoValidTables = errors.New("no valid files found to combine")
)

// Row maps a column name to its raw text value.
type Row map[string]string

// Table is one parsed delimited file, or the merge of several.
type Table struct {
	Source  string   // File the table was read from; empty for merged tables.
	Columns []string // Column names in header order.
	Rows    []Row    // Data rows, header excluded.
}

// Value returns the value of column in row i, or "" when absent.
func (t *Table) Value(i int, column string) string {
	return t.Rows[i][column]
}

// ParseError describes a file that could not be parsed.
type ParseError struct {
	File string // Base name of the file.
	Line int    // First offending line found by diagnostics, 0 when unknown.
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s (line %d): %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Summary reports what a run did.
type Summary struct {
	Extension  string        // Normalized extension, e.g. ".csv".
	Files      []string      // Candidate files in discovery order.
	Parsed     []string      // Files that contributed rows.
	Failures   []*ParseError // Files that were skipped.
	Columns    int           // Width of the merged table.
	DataRows   int           // Rows in the merged table, header excluded.
	TotalRows  int           // Reported tally, see Arguments.CountHeaders.
	OutputPath string        // Written file, or the would-be file on a dry run.
	Written    bool          // Whether OutputPath was written.
	Elapsed    time.Duration
}

// Err combines every per-file failure into one error, nil when all files parsed.
func (s *Summary) Err() error {
	var err error
	for _, f := range s.Failures {
		err = multierr.Append(err, f)
	}
	return err
}
