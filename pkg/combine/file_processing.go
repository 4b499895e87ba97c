package combine

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Errors for files rejected before CSV decoding.
var (
	ErrEmptyFile  = errors.New("no columns to parse from file")
	ErrBinaryFile = errors.New("file appears to be binary")
)

const utf8BOM = "\ufeff"

// maxLineSize bounds a single line during the diagnostic pass.
const maxLineSize = 16 * 1024 * 1024

// ParseFile reads a delimited file into a Table. The first record is the
// header and every later record must have the same number of fields.
// Values are kept as raw text. A quote is special only at the start of a
// field: values such as 27" wide pass through unchanged, while an
// unterminated quoted field still fails the file.
func ParseFile(path string, delimiter rune, logger *zap.Logger) (*Table, error) {
	logger.Debug("Parsing file", zap.String("file", path), zap.String("delimiter", DelimiterName(delimiter)))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if looksBinary(head) {
		return nil, ErrBinaryFile
	}

	table, err := readTable(br, path, delimiter, false)
	if errors.Is(err, csv.ErrBareQuote) {
		logger.Debug("Quote inside unquoted field, re-reading with lazy quotes", zap.String("file", path))
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("error rewinding file: %w", err)
		}
		table, err = readTable(file, path, delimiter, true)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Parsed file",
		zap.String("file", path),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

func newReader(r io.Reader, delimiter rune, lazyQuotes bool) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = 0
	reader.LazyQuotes = lazyQuotes
	return reader
}

func readTable(r io.Reader, path string, delimiter rune, lazyQuotes bool) (*Table, error) {
	reader := newReader(r, delimiter, lazyQuotes)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	table := &Table{Source: path, Columns: uniqueColumns(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(Row, len(table.Columns))
		for i, column := range table.Columns {
			row[column] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// parseLine parses one line on its own with the same quote rules as ParseFile.
func parseLine(line string, delimiter rune) ([]string, error) {
	record, err := newReader(strings.NewReader(line), delimiter, false).Read()
	if errors.Is(err, csv.ErrBareQuote) {
		record, err = newReader(strings.NewReader(line), delimiter, true).Read()
	}
	return record, err
}

// OffendingLine picks the line to report for a parse failure: the start of
// the failing record when the reader knows it, otherwise DiagnoseFile's answer.
func OffendingLine(path string, delimiter rune, parseErr error) (int, error) {
	var csvErr *csv.ParseError
	if errors.As(parseErr, &csvErr) {
		if csvErr.StartLine > 0 {
			return csvErr.StartLine, nil
		}
		if csvErr.Line > 0 {
			return csvErr.Line, nil
		}
	}
	return DiagnoseFile(path, delimiter)
}

// DiagnoseFile re-reads a file that failed to parse, one line at a time,
// parsing each line on its own. It returns the 1-based number of the first
// line that does not parse alone or whose width differs from the first
// line, or 0 when every line looks fine in isolation. It only reports; no
// rows are recovered.
func DiagnoseFile(path string, delimiter rune) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	width := -1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := parseLine(line, delimiter)
		if err != nil {
			return lineNo, nil
		}
		if width < 0 {
			width = len(record)
			continue
		}
		if len(record) != width {
			return lineNo, nil
		}
	}
	return 0, scanner.Err()
}

// uniqueColumns strips a leading BOM, names empty headers "Unnamed: <i>" and
// renames repeated headers to name.1, name.2, ...
func uniqueColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		unique := name
		if used[name] {
			k := suffix[name]
			for {
				k++
				unique = name + "." + strconv.Itoa(k)
				if !used[unique] {
					break
				}
			}
			suffix[name] = k
		}
		used[unique] = true
		columns[i] = unique
	}
	return columns
}
