package cmd

import (
	"csvcombine/pkg/combine"

	"github.com/spf13/pflag"
)

// delimiterValue is a pflag.Value accepting what combine.ParseDelimiter accepts.
type delimiterValue struct {
	r rune
}

var _ pflag.Value = (*delimiterValue)(nil)

func (d *delimiterValue) String() string {
	if d.r == 0 {
		return ""
	}
	return combine.DelimiterName(d.r)
}

func (d *delimiterValue) Set(s string) error {
	r, err := combine.ParseDelimiter(s)
	if err != nil {
		return err
	}
	d.r = r
	return nil
}

func (d *delimiterValue) Type() string {
	return "delimiter"
}
