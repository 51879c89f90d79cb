package at

import (
	"bufio"
	"bytes"
)

// ScanLines is used for tokenizing module output. It uses the signature
// of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// The module terminates lines with CRLF, but boot banners occasionally
// arrive with a bare LF, so the split is done on LF with an optional
// preceding CR. End-of-line markers are stripped from the token.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, dropCR(data[:i]), nil
	}

	if atEOF {
		return len(data), dropCR(data), nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = ScanLines

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

// DecodeLine returns line unchanged when it is pure ASCII and the
// Garbled sentinel otherwise. The module only ever emits ASCII; anything
// else is transport noise that must not crash the reader.
func DecodeLine(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] > 0x7f {
			return Garbled
		}
	}
	return line
}
