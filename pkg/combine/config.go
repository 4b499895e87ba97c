// File: pkg/combine/config.go
package combine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// Defaults applied by NewArguments.
const (
	DefaultOutputPrefix = "csv_combined"
	DefaultEscapeChar   = '\\'
	QuoteChar           = '"'
)

// Environment variables read by ApplyEnv.
const (
	EnvInputDelimiter  = "CSVCOMBINE_INPUT_DELIMITER"
	EnvOutputDelimiter = "CSVCOMBINE_OUTPUT_DELIMITER"
	EnvEscapeChar      = "CSVCOMBINE_ESCAPE_CHAR"
	EnvOutputPrefix    = "CSVCOMBINE_OUTPUT_PREFIX"
)

// Arguments holds the configuration options for one combine run.
type Arguments struct {
	Directory       string   // Directory searched for input files and receiving the output.
	Extension       string   // Extension of files to combine; normalized to start with '.'.
	InputDelimiter  rune     // Field separator of the input files; 0 means not yet chosen.
	OutputDelimiter rune     // Field separator of the output file; 0 means not yet chosen.
	EscapeChar      rune     // Escapes delimiter, quote and itself in output fields.
	OutputPrefix    string   // Output file name prefix; files starting with it are never read.
	ExcludePatterns []string // Extra gitignore-style exclusions applied during discovery.
	CountHeaders    bool     // Count each file's header row in the reported total.
	DryRun          bool     // Parse and merge but do not write the output file.
}

// NewArguments returns Arguments with the documented defaults.
func NewArguments(extension string) Arguments {
	return Arguments{
		Directory:    ".",
		Extension:    NormalizeExtension(extension),
		EscapeChar:   DefaultEscapeChar,
		OutputPrefix: DefaultOutputPrefix,
		CountHeaders: true,
	}
}

// NormalizeExtension prepends '.' when missing.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// OutputName is the base name of the combined file.
func (a Arguments) OutputName() string {
	return a.OutputPrefix + a.Extension
}

// ApplyEnv fills unset delimiters and overrides the escape character and
// prefix from the environment. Callers apply explicit flags afterwards.
func (a *Arguments) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvInputDelimiter); ok && v != "" {
		r, err := ParseDelimiter(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInputDelimiter, err)
		}
		a.InputDelimiter = r
	}
	if v, ok := lookup(EnvOutputDelimiter); ok && v != "" {
		r, err := ParseDelimiter(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOutputDelimiter, err)
		}
		a.OutputDelimiter = r
	}
	if v, ok := lookup(EnvEscapeChar); ok && v != "" {
		r, err := ParseDelimiter(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvEscapeChar, err)
		}
		a.EscapeChar = r
	}
	if v, ok := lookup(EnvOutputPrefix); ok && strings.TrimSpace(v) != "" {
		a.OutputPrefix = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks that the arguments are complete enough to run.
func (a Arguments) Validate() error {
	var errs []error
	if a.Extension == "" || a.Extension == "." {
		errs = append(errs, errors.New("file extension is required"))
	}
	if strings.ContainsAny(a.Extension, `/\`) {
		errs = append(errs, fmt.Errorf("extension %q must not contain a path separator", a.Extension))
	}
	if a.OutputPrefix == "" {
		errs = append(errs, errors.New("output prefix must not be empty"))
	}
	if err := checkDelimiter(a.InputDelimiter); err != nil {
		errs = append(errs, fmt.Errorf("input delimiter: %w", err))
	}
	if err := checkDelimiter(a.OutputDelimiter); err != nil {
		errs = append(errs, fmt.Errorf("output delimiter: %w", err))
	}
	if a.EscapeChar == a.OutputDelimiter {
		errs = append(errs, errors.New("escape character must differ from the output delimiter"))
	}
	return multierr.Combine(errs...)
}
