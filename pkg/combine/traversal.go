// File: pkg/combine/traversal.go
package combine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"csvcombine/pkg/ignore"

	"go.uber.org/zap"
)

// Discover lists the candidate files in dir: regular files whose name ends
// with ext, minus names starting with outputPrefix and names excluded by gi.
// The order is the directory listing order and decides the output row order.
func Discover(dir, ext, outputPrefix string, gi *ignore.Matcher, logger *zap.Logger) ([]string, error) {
	logger.Debug("Starting file discovery",
		zap.String("directory", dir),
		zap.String("extension", ext),
		zap.String("outputPrefix", outputPrefix))

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("Failed to read directory", zap.String("directory", dir), zap.Error(err))
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if strings.HasPrefix(name, outputPrefix) {
			logger.Debug("Skipping previous output file", zap.String("file", name))
			continue
		}
		if gi != nil {
			if matched, p := gi.MatchWithPattern(name); matched {
				logger.Debug("File matches exclusion pattern",
					zap.String("file", name),
					zap.String("pattern", p.Line),
					zap.String("source", p.Source))
				continue
			}
		}
		if !isRegular(dir, entry) {
			logger.Debug("Skipping non-regular entry", zap.String("file", name))
			continue
		}
		files = append(files, name)
	}

	logger.Debug("Completed file discovery", zap.Int("candidates", len(files)))
	return files, nil
}

// isRegular follows symlinks so linked data files are still combined.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
