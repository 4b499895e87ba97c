// Package logging configures the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the global logger instance. It is a no-op logger until Setup runs.
var Logger = zap.NewNop()

// Setup builds Logger. Production logging is JSON at info level; debug
// logging is the human-readable development format at debug level. Both
// write to stderr so stdout stays reserved for operator messages.
func Setup(debug bool, appName, appVersion string) error {
	var err error
	var cfg zap.Config

	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}

	Logger, err = cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return err
	}

	zap.ReplaceGlobals(Logger)
	return nil
}
