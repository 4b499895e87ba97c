package main

import (
	"log"
	"os"
	"strings"

	"csvcombine/cmd"
	"csvcombine/pkg/logging"
	"csvcombine/pkg/version"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	if err := logging.Setup(false, cmd.AppName, version.Version); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logging.Logger

	if err := cmd.Execute(logger); err != nil {
		syncLogger(logger)
		logger.Fatal("csvcombine execution failed", zap.Error(err))
	}
	syncLogger(logger)
}

// syncLogger flushes logs. Sync on a console or pipe returns "invalid
// argument" on some platforms, so only terminals and regular files are synced.
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if err := logger.Sync(); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "invalid argument") {
			log.Printf("Logger sync failed: %v", err)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
