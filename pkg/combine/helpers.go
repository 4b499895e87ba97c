// File: pkg/combine/helpers.go
package combine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Prompt texts shown when a delimiter was not configured.
const (
	InputDelimiterPrompt  = "Enter the delimiter character used in input files (e.g., comma, tab, etc..): "
	OutputDelimiterPrompt = "Enter the delimiter character for the output file (e.g., comma, tab, etc..): "
)

// Prompter asks the operator questions on a line-oriented input. One
// Prompter must be shared across questions so buffered input is not lost.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter wraps in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Delimiter displays message and parses the answer with ParseDelimiter.
func (p *Prompter) Delimiter(message string) (rune, error) {
	fmt.Fprint(p.out, message)
	response, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && response != "") {
		return 0, fmt.Errorf("failed to read answer: %w", err)
	}
	return ParseDelimiter(response)
}

// WriteCombinedFile writes table to outputPath, replacing any existing file.
func WriteCombinedFile(outputPath string, table *Table, delimiter, escape rune, logger *zap.Logger) (err error) {
	logger.Debug("Writing combined content to output file", zap.String("combinedFile", outputPath))

	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", outputPath), zap.Error(err))
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			logger.Error("Failed to close output file", zap.String("file", outputPath), zap.Error(closeErr))
			if err == nil {
				err = fmt.Errorf("failed to close output file: %w", closeErr)
			}
		}
	}()

	writer := bufio.NewWriter(outFile)
	if err := EncodeTable(writer, table, delimiter, escape); err != nil {
		logger.Error("Failed to write combined file", zap.String("file", outputPath), zap.Error(err))
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output file", zap.String("file", outputPath), zap.Error(err))
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// EncodeTable writes the header and rows of table, one line each, fields
// joined by delimiter. Fields are never quoted: occurrences of the
// delimiter, the quote character, the escape character and line breaks are
// prefixed with escape.
func EncodeTable(w io.Writer, table *Table, delimiter, escape rune) error {
	specials := string([]rune{delimiter, QuoteChar, escape, '\r', '\n'})
	sep := string(delimiter)

	fields := make([]string, len(table.Columns))
	writeLine := func() error {
		_, err := io.WriteString(w, strings.Join(fields, sep)+"\n")
		return err
	}

	for i, column := range table.Columns {
		fields[i] = escapeField(column, specials, escape)
	}
	if err := writeLine(); err != nil {
		return err
	}

	for r := range table.Rows {
		for i, column := range table.Columns {
			fields[i] = escapeField(table.Value(r, column), specials, escape)
		}
		if err := writeLine(); err != nil {
			return err
		}
	}
	return nil
}

func escapeField(field, specials string, escape rune) string {
	if !strings.ContainsAny(field, specials) {
		return field
	}
	var b strings.Builder
	b.Grow(len(field) + 4)
	for _, r := range field {
		if strings.ContainsRune(specials, r) {
			b.WriteRune(escape)
		}
		b.WriteRune(r)
	}
	return b.String()
}
