package combine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func testArguments(dir string) Arguments {
	args := NewArguments("csv")
	args.Directory = dir
	args.InputDelimiter = ','
	args.OutputDelimiter = ';'
	return args
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to read output %s: %v", name, err)
	}
	return string(data)
}

func TestRunCombineTwoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,name\n1,alice\n2,bob\n")
	writeFile(t, dir, "b.csv", "id,name\n3,carol\n4,dave\n5,eve\n")

	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}

	want := "id;name\n1;alice\n2;bob\n3;carol\n4;dave\n5;eve\n"
	if got := readOutput(t, dir, "csv_combined.csv"); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}

	wantOut := "Processing file: a.csv\n" +
		"Processing file: b.csv\n" +
		"CSV files successfully combined. Output file: csv_combined.csv\n" +
		"Total rows combined: 7\n"
	if out.String() != wantOut {
		t.Errorf("stdout:\n%s\nwant:\n%s", out.String(), wantOut)
	}

	if summary.TotalRows != 7 || summary.DataRows != 5 || summary.Columns != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !summary.Written || summary.OutputPath != filepath.Join(dir, "csv_combined.csv") {
		t.Errorf("unexpected output in summary: %+v", summary)
	}
}

func TestRunCombineDataRowsOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,name\n1,alice\n2,bob\n")
	writeFile(t, dir, "b.csv", "id,name\n3,carol\n4,dave\n5,eve\n")

	args := testArguments(dir)
	args.CountHeaders = false

	var out bytes.Buffer
	summary, err := RunCombine(args, zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}
	if summary.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5", summary.TotalRows)
	}
	if !strings.Contains(out.String(), "Total rows combined: 5\n") {
		t.Errorf("stdout missing total: %s", out.String())
	}
}

func TestRunCombineNoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "id\n1\n")

	var out bytes.Buffer
	_, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
	if !IsGracefulStop(err) {
		t.Errorf("ErrNoFiles should be a graceful stop")
	}
	if want := "No .csv files found in directory " + dir + ".\n"; out.String() != want {
		t.Errorf("stdout = %q", out.String())
	}
	if _, statErr := os.Stat(filepath.Join(dir, "csv_combined.csv")); !os.IsNotExist(statErr) {
		t.Errorf("output file should not exist, stat error: %v", statErr)
	}
}

func TestRunCombineSkipsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.csv", "id,name\n1,alice\n2,bob,extra\n")
	writeFile(t, dir, "good.csv", "id,name\n3,carol\n")

	core, logs := observer.New(zap.WarnLevel)
	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zap.New(core), &out)
	if err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}

	if got := readOutput(t, dir, "csv_combined.csv"); got != "id;name\n3;carol\n" {
		t.Errorf("output = %q", got)
	}

	stdout := out.String()
	if !strings.Contains(stdout, "Error parsing file 'bad.csv': ") {
		t.Errorf("stdout does not name the failing file:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Skipped line 3 in file 'bad.csv' due to parsing error.\n") {
		t.Errorf("stdout missing diagnostic line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Total rows combined: 2\n") {
		t.Errorf("stdout missing total:\n%s", stdout)
	}

	if len(summary.Failures) != 1 || summary.Failures[0].File != "bad.csv" || summary.Failures[0].Line != 3 {
		t.Errorf("unexpected failures: %+v", summary.Failures)
	}
	var pe *ParseError
	if !errors.As(summary.Err(), &pe) || pe.File != "bad.csv" {
		t.Errorf("Summary.Err() = %v, want ParseError for bad.csv", summary.Err())
	}
	if logs.FilterMessage("Failed to parse file").Len() != 1 {
		t.Errorf("expected one parse failure log, got %d", logs.FilterMessage("Failed to parse file").Len())
	}
}

func TestRunCombineNoValidTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.csv", "")
	writeFile(t, dir, "ragged.csv", "a,b\n1\n")

	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if !errors.Is(err, ErrNoValidTables) {
		t.Fatalf("err = %v, want ErrNoValidTables", err)
	}
	if len(summary.Failures) != 2 {
		t.Errorf("expected 2 failures, got %d", len(summary.Failures))
	}
	if !strings.HasSuffix(out.String(), "No valid CSV files found to combine.\n") {
		t.Errorf("stdout = %q", out.String())
	}
	if !strings.Contains(out.String(), "Skipped line 2 in file 'ragged.csv' due to parsing error.\n") {
		t.Errorf("stdout missing diagnostic for ragged.csv: %q", out.String())
	}
	if _, statErr := os.Stat(filepath.Join(dir, "csv_combined.csv")); !os.IsNotExist(statErr) {
		t.Errorf("output file should not exist, stat error: %v", statErr)
	}
}

func TestRunCombineIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id,name\n1,alice\n")
	writeFile(t, dir, "b.csv", "id,email\n2,b@example.com\n")
	writeFile(t, dir, "c.txt", "ignored\n")

	if _, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readOutput(t, dir, "csv_combined.csv")

	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readOutput(t, dir, "csv_combined.csv")

	if first != second {
		t.Errorf("second run differs:\n%s\nvs\n%s", first, second)
	}
	if want := "id;name;email\n1;alice;\n2;;b@example.com\n"; first != want {
		t.Errorf("output = %q, want %q", first, want)
	}
	if len(summary.Files) != 2 {
		t.Errorf("previous output was re-ingested: %v", summary.Files)
	}
}

func TestRunCombineTabToCommaWithEscaping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.tsv", "code\tcity\n007\tParis, FR\n")

	args := NewArguments("tsv")
	args.Directory = dir
	args.InputDelimiter = '\t'
	args.OutputDelimiter = ','

	if _, err := RunCombine(args, zaptest.NewLogger(t), &bytes.Buffer{}); err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}
	if got := readOutput(t, dir, "csv_combined.tsv"); got != "code,city\n007,Paris\\, FR\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunCombineExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.csv", "id\n1\n")
	writeFile(t, dir, "draft.csv", "id\n2\n")
	writeFile(t, dir, "old.csv", "id\n3\n")
	writeFile(t, dir, ".combineignore", "old.csv\n")

	args := testArguments(dir)
	args.ExcludePatterns = []string{"draft*"}

	summary, err := RunCombine(args, zaptest.NewLogger(t), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}
	if len(summary.Files) != 1 || summary.Files[0] != "keep.csv" {
		t.Errorf("Files = %v, want [keep.csv]", summary.Files)
	}
}

func TestRunCombineDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id\n1\n2\n")

	args := testArguments(dir)
	args.DryRun = true

	var out bytes.Buffer
	summary, err := RunCombine(args, zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("RunCombine returned error: %v", err)
	}
	if summary.Written {
		t.Errorf("dry run reported a write")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "csv_combined.csv")); !os.IsNotExist(statErr) {
		t.Errorf("dry run wrote output, stat error: %v", statErr)
	}
	if !strings.Contains(out.String(), "Dry run: 1 files would be combined. Output file: csv_combined.csv\n") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRunCombineWriteFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "id\n1\n")
	if err := os.Mkdir(filepath.Join(dir, "csv_combined.csv"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	_, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected write failure")
	}
	if IsGracefulStop(err) {
		t.Errorf("write failure must not be a graceful stop: %v", err)
	}
}

func TestRunCombineInvalidArguments(t *testing.T) {
	args := testArguments(t.TempDir())
	args.OutputDelimiter = 0

	if _, err := RunCombine(args, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected invalid arguments error")
	}
}

func TestDirectoryLabel(t *testing.T) {
	cases := map[string]string{
		"":        "the current directory",
		".":       "the current directory",
		"./":      "the current directory",
		"data/in": "directory data/in",
	}
	for dir, want := range cases {
		if got := directoryLabel(dir); got != want {
			t.Errorf("directoryLabel(%q) = %q, want %q", dir, got, want)
		}
	}
}

func TestRunCombineKeepsQuotesInsideFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "item,size\nmonitor,27\" wide\n")
	writeFile(t, dir, "b.csv", "item,size\nlamp,small\n")

	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("RunCombine returned error: %v\n%s", err, out.String())
	}
	if len(summary.Failures) != 0 {
		t.Errorf("unexpected failures: %v", summary.Err())
	}
	if got, want := readOutput(t, dir, "csv_combined.csv"), "item;size\nmonitor;27\\\" wide\nlamp;small\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunCombineReportsStartOfFailingRecord(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.csv", "id,note\n1,\"two\nlines\"\n2,ok\n3,x,extra\n")

	var out bytes.Buffer
	summary, err := RunCombine(testArguments(dir), zaptest.NewLogger(t), &out)
	if !errors.Is(err, ErrNoValidTables) {
		t.Fatalf("err = %v, want ErrNoValidTables", err)
	}
	if !strings.Contains(out.String(), "Skipped line 5 in file 'notes.csv' due to parsing error.\n") {
		t.Errorf("stdout = %q", out.String())
	}
	if summary.Failures[0].Line != 5 {
		t.Errorf("failure line = %d, want 5", summary.Failures[0].Line)
	}
}
