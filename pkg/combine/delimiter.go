package combine

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// delimiterNames are the symbolic names accepted in place of a literal character.
var delimiterNames = map[string]rune{
	"comma":     ',',
	"tab":       '\t',
	`\t`:        '\t',
	"semicolon": ';',
	"pipe":      '|',
	"space":     ' ',
	"colon":     ':',
}

// ParseDelimiter converts user input into a single delimiter rune. The input
// is either exactly one character (spaces and tabs included) or one of the
// names comma, tab, semicolon, pipe, space, colon or the escape \t.
func ParseDelimiter(raw string) (rune, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if raw == "" {
		return 0, errors.New("delimiter must not be empty")
	}

	var r rune
	if utf8.RuneCountInString(raw) == 1 {
		r, _ = utf8.DecodeRuneInString(raw)
	} else {
		name := strings.ToLower(strings.TrimSpace(raw))
		if named, ok := delimiterNames[name]; ok {
			r = named
		} else if utf8.RuneCountInString(name) == 1 {
			r, _ = utf8.DecodeRuneInString(name)
		} else {
			return 0, fmt.Errorf("delimiter %q must be a single character or one of comma, tab, semicolon, pipe, space, colon", raw)
		}
	}

	if err := checkDelimiter(r); err != nil {
		return 0, err
	}
	return r, nil
}

// DelimiterName renders a delimiter for messages and logs.
func DelimiterName(r rune) string {
	switch r {
	case '\t':
		return "tab"
	case ' ':
		return "space"
	}
	return string(r)
}

func checkDelimiter(r rune) error {
	switch {
	case r == 0:
		return errors.New("delimiter is not set")
	case r == '\r' || r == '\n':
		return errors.New("delimiter must not be a line break")
	case r == QuoteChar:
		return errors.New(`delimiter must not be the quote character '"'`)
	case r == utf8.RuneError:
		return errors.New("delimiter is not valid UTF-8")
	}
	return nil
}
