package cmd

import (
	"csvcombine/pkg/logging"
	"csvcombine/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppName is the binary name used in logs and help output.
const AppName = "csvcombine"

// NewRootCmd builds the combine command with the version subcommand
// attached. Logs go to logger unless --debug swaps in a development logger.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &combineOptions{logger: logger}

	root := &cobra.Command{
		Use:   AppName + " <extension>",
		Short: "Combine delimited files sharing an extension into one file",
		Long: `csvcombine reads every file in the working directory whose name ends with
<extension>, parses each with the input delimiter, and writes all rows to
csv_combined<extension> using the output delimiter.

Delimiters not given by flag or environment are asked for interactively.
Besides literal characters, the names comma, tab, semicolon, pipe, space
and colon are accepted.

Output fields are not quoted. The delimiter, '"' and the escape character
are prefixed with the escape character (default '\'), as are line breaks
inside fields.

"Total rows combined" counts one header row per combined file on top of
the data rows; pass --data-rows-only to count data rows only.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil || !debug {
				return err
			}
			if err := logging.Setup(true, AppName, version.Version); err != nil {
				return err
			}
			opts.logger = logging.Logger
			return nil
		},
		RunE: opts.run,
	}

	root.PersistentFlags().Bool("debug", false, "Enable development logging at debug level")
	opts.addFlags(root)
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line with the given logger.
func Execute(logger *zap.Logger) error {
	return NewRootCmd(logger).Execute()
}
