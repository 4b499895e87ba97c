// Package ignore matches file names against gitignore-style exclusion patterns.
package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// FileName is the per-directory exclusion file read by LoadIgnoreFiles.
const FileName = ".combineignore"

// Pattern is one compiled exclusion rule.
type Pattern struct {
	Regexp *regexp.Regexp // Compiled form of Line.
	Negate bool           // Pattern started with '!' and re-includes matches.
	Line   string         // Original pattern text.
	Source string         // File the pattern came from, or "flag".
}

// Matcher holds an ordered list of patterns. Later patterns win.
type Matcher struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty Matcher. A nil logger is replaced by a no-op logger.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// LoadIgnoreFiles builds a Matcher from dir/.combineignore (if present)
// followed by the extra patterns, so extra patterns take precedence.
func LoadIgnoreFiles(dir string, extra []string, logger *zap.Logger) (*Matcher, error) {
	m := New(logger)

	if err := m.CompileFile(filepath.Join(dir, FileName)); err != nil {
		return nil, fmt.Errorf("failed to load ignore file: %w", err)
	}

	m.CompileLines(extra...)
	m.logger.Debug("Loaded exclusion patterns", zap.Int("totalPatterns", m.Len()))
	return m, nil
}

// CompileFile reads patterns from path. A missing file is not an error.
func (m *Matcher) CompileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("Ignore file does not exist and will be skipped", zap.String("file", path))
			return nil
		}
		m.logger.Error("Failed to read ignore file", zap.String("file", path), zap.Error(err))
		return err
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	m.compile(path, lines)
	return nil
}

// CompileLines adds patterns given directly, e.g. from the command line.
func (m *Matcher) CompileLines(lines ...string) {
	m.compile("flag", lines)
}

func (m *Matcher) compile(source string, lines []string) {
	for _, line := range lines {
		re, negate, err := parsePatternLine(line)
		if err != nil {
			m.logger.Warn("Invalid exclusion pattern", zap.String("pattern", line), zap.String("source", source), zap.Error(err))
			continue
		}
		if re == nil {
			continue
		}
		m.patterns = append(m.patterns, &Pattern{Regexp: re, Negate: negate, Line: line, Source: source})
		m.logger.Debug("Compiled exclusion pattern",
			zap.String("pattern", line),
			zap.String("source", source),
			zap.Bool("negate", negate))
	}
}

// Len reports the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// MatchWithPattern reports whether name is excluded and which pattern decided it.
func (m *Matcher) MatchWithPattern(name string) (bool, *Pattern) {
	name = filepath.ToSlash(name)

	matched := false
	var decided *Pattern
	for _, p := range m.patterns {
		if p.Regexp.MatchString(name) {
			matched = !p.Negate
			decided = p
		}
	}
	return matched, decided
}

// parsePatternLine turns one pattern line into a regular expression.
// Blank lines and comments yield a nil expression.
func parsePatternLine(line string) (*regexp.Regexp, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false, nil
	}

	negate := false
	if strings.HasPrefix(trimmed, "!") {
		negate = true
		trimmed = strings.TrimPrefix(trimmed, "!")
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}

	rooted := strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "/**/")
	body := trimmed
	if rooted {
		body = strings.TrimPrefix(body, "/")
	}
	dirOnly := strings.HasSuffix(body, "/") && !strings.HasSuffix(body, "/**/")
	body = strings.TrimSuffix(body, "/")

	re, err := regexp.Compile(anchorPattern(globToRegex(body), rooted, dirOnly))
	if err != nil {
		return nil, false, err
	}
	return re, negate, nil
}

// globToRegex converts wildcard syntax. '**' spans directories, '*' and '?'
// stay within one path segment, everything else is literal.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "/**/"):
			b.WriteString(`(/|/.+/)`)
			i += 4
		case i == 0 && strings.HasPrefix(glob, "**/"):
			b.WriteString(`(.*/)?`)
			i += 3
		case glob[i:] == "/**":
			b.WriteString(`(/.*)?`)
			i += 3
		case glob[i:] == "**" && i == 0:
			b.WriteString(`.*`)
			i += 2
		case glob[i] == '*':
			b.WriteString(`[^/]*`)
			i++
		case glob[i] == '?':
			b.WriteString(`[^/]`)
			i++
		default:
			r, size := utf8.DecodeRuneInString(glob[i:])
			b.WriteString(regexp.QuoteMeta(string(r)))
			i += size
		}
	}
	return b.String()
}

func anchorPattern(pattern string, rooted, dirOnly bool) string {
	if dirOnly {
		pattern += `/.*$`
	} else {
		pattern += `(|/.*)$`
	}
	if rooted {
		return "^" + pattern
	}
	return "^(|.*/)" + pattern
}
