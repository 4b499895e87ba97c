package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"csvcombine/pkg/combine"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// combineOptions backs the root command's flags.
type combineOptions struct {
	logger *zap.Logger

	inputDelimiter  delimiterValue
	outputDelimiter delimiterValue
	escapeChar      delimiterValue
	outputPrefix    string
	directory       string
	exclude         []string
	dataRowsOnly    bool
	dryRun          bool
}

func (o *combineOptions) addFlags(c *cobra.Command) {
	f := c.Flags()
	f.VarP(&o.inputDelimiter, "input-delimiter", "i", "Delimiter used in the input files (prompted when unset)")
	f.VarP(&o.outputDelimiter, "output-delimiter", "o", "Delimiter for the output file (prompted when unset)")
	f.Var(&o.escapeChar, "escape-char", `Escape character for output fields (default '\')`)
	f.StringVar(&o.outputPrefix, "output-prefix", combine.DefaultOutputPrefix, "Output file name prefix; input files starting with it are skipped")
	f.StringVarP(&o.directory, "dir", "C", ".", "Directory containing the files to combine")
	f.StringArrayVarP(&o.exclude, "exclude", "x", nil, "Exclude files matching a gitignore-style pattern (repeatable)")
	f.BoolVar(&o.dataRowsOnly, "data-rows-only", false, "Do not count header rows in the reported total")
	f.BoolVar(&o.dryRun, "dry-run", false, "Parse and merge without writing the output file")
}

// run resolves the arguments and runs the combiner. Flags win over the
// environment, which wins over .env; prompts fill what is still unset.
func (o *combineOptions) run(cmd *cobra.Command, positional []string) error {
	args := combine.NewArguments(positional[0])
	args.Directory = o.directory
	args.ExcludePatterns = o.exclude
	args.CountHeaders = !o.dataRowsOnly
	args.DryRun = o.dryRun

	dotenv := readDotEnv(args.Directory, o.logger)
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := args.ApplyEnv(lookup); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("input-delimiter") {
		args.InputDelimiter = o.inputDelimiter.r
	}
	if f.Changed("output-delimiter") {
		args.OutputDelimiter = o.outputDelimiter.r
	}
	if f.Changed("escape-char") {
		args.EscapeChar = o.escapeChar.r
	}
	if f.Changed("output-prefix") {
		args.OutputPrefix = o.outputPrefix
	}

	if err := promptMissing(cmd, &args, o.logger); err != nil {
		return err
	}

	summary, err := combine.RunCombine(args, o.logger, cmd.OutOrStdout())
	if summary != nil {
		o.logger.Debug("Run summary",
			zap.Int("candidates", len(summary.Files)),
			zap.Int("parsed", len(summary.Parsed)),
			zap.Int("skipped", len(summary.Failures)),
			zap.Int("totalRows", summary.TotalRows),
			zap.Bool("written", summary.Written),
			zap.Duration("elapsed", summary.Elapsed))
	}
	if combine.IsGracefulStop(err) {
		return nil
	}
	return err
}

// readDotEnv parses dir/.env when present. The process environment is
// left untouched.
func readDotEnv(dir string, logger *zap.Logger) map[string]string {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		logger.Warn("Failed to load .env file", zap.String("file", path), zap.Error(err))
		return nil
	}
	logger.Debug("Loaded .env file", zap.String("file", path), zap.Int("variables", len(values)))
	return values
}

// promptMissing asks for the delimiters that are still unset.
func promptMissing(cmd *cobra.Command, args *combine.Arguments, logger *zap.Logger) error {
	if args.InputDelimiter != 0 && args.OutputDelimiter != 0 {
		return nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		logger.Debug("Reading delimiters from non-interactive input")
	}

	p := combine.NewPrompter(in, cmd.OutOrStdout())
	if args.InputDelimiter == 0 {
		r, err := p.Delimiter(combine.InputDelimiterPrompt)
		if err != nil {
			return fmt.Errorf("input delimiter: %w", err)
		}
		args.InputDelimiter = r
	}
	if args.OutputDelimiter == 0 {
		r, err := p.Delimiter(combine.OutputDelimiterPrompt)
		if err != nil {
			return fmt.Errorf("output delimiter: %w", err)
		}
		args.OutputDelimiter = r
	}
	return nil
}
