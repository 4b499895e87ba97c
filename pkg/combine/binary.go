// File: pkg/combine/binary.go
package combine

import "bytes"

// sniffLen is how much of a file looksBinary inspects.
const sniffLen = 512

// looksBinary reports whether head is likely binary content: it contains a
// NUL byte or more than 30% non-printable bytes. UTF-8 multibyte sequences
// count as printable so non-ASCII text is not rejected.
func looksBinary(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range head {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(head)) > 0.3
}

func isPrintable(b byte) bool {
	return (b >= 32 && b != 127) || b == '\n' || b == '\r' || b == '\t' || b == '\f'
}
