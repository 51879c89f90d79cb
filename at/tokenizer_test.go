package at_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/edgekit/rak811/at"
)

func TestScanLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Command response",
			input:    "OK0\r\n",
			expected: []string{"OK0"},
		},
		{
			name:     "Response followed by events",
			input:    "OK\r\nat+recv=2,0,0\r\nat+recv=0,1,0,0,1,55\r\n",
			expected: []string{"OK", "at+recv=2,0,0", "at+recv=0,1,0,0,1,55"},
		},
		{
			name:     "Boot banner with blank lines",
			input:    "Welcome to RAK811\r\n\r\n\r\nOK\r\n",
			expected: []string{"Welcome to RAK811", "", "", "OK"},
		},
		{
			name:     "Bare LF line endings",
			input:    "OK\nat+recv=2,0,0\n",
			expected: []string{"OK", "at+recv=2,0,0"},
		},
		{
			name:     "V3 multi-line response",
			input:    "UART1 115200 N 8 1\r\nInitialization OK\r\n",
			expected: []string{"UART1 115200 N 8 1", "Initialization OK"},
		},
		// EOF scenarios
		{
			name:     "Partial line at EOF",
			input:    "OK\r\nat+recv=2,0",
			expected: []string{"OK", "at+recv=2,0"},
		},
		{
			name:     "Line without terminator at EOF",
			input:    "ERROR-1",
			expected: []string{"ERROR-1"},
		},
		{
			name:     "Trailing CR at EOF",
			input:    "OK\r",
			expected: []string{"OK"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.ScanLines)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassifyV2(t *testing.T) {
	markers := at.DialectV2()

	tests := []struct {
		name     string
		input    string
		expected at.LineType
	}{
		{name: "OK with payload", input: "OK0", expected: at.TypeSuccess},
		{name: "Bare OK", input: "OK", expected: at.TypeSuccess},
		{name: "Error with code", input: "ERROR-1", expected: at.TypeFailure},
		{name: "Event", input: "at+recv=0,1,0,0,1,55", expected: at.TypeEvent},
		{name: "Boot banner", input: "Welcome to RAK811", expected: at.TypeOther},
		{name: "Empty line", input: "", expected: at.TypeOther},
		{name: "Garbled sentinel", input: at.Garbled, expected: at.TypeOther},
		{name: "Case is not folded", input: "ok", expected: at.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := at.Classify(markers, tt.input); result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestClassifyV3(t *testing.T) {
	markers := at.DialectV3()

	tests := []struct {
		name     string
		input    string
		expected at.LineType
	}{
		{name: "OK with payload", input: "OK V3.0.0.14.H", expected: at.TypeSuccess},
		{name: "Bare OK is noise", input: "OK", expected: at.TypeOther},
		{name: "Initialization OK", input: "Initialization OK", expected: at.TypeSuccess},
		{name: "Error with code", input: "ERROR: 2", expected: at.TypeFailure},
		{name: "V2 error shape is noise", input: "ERROR-1", expected: at.TypeOther},
		{name: "Event", input: "at+recv=1,-65,6,2:4865", expected: at.TypeEvent},
		{name: "Informational line", input: "UART1 115200 N 8 1", expected: at.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := at.Classify(markers, tt.input); result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestDecodeLine(t *testing.T) {
	if got := at.DecodeLine("OK0"); got != "OK0" {
		t.Errorf("ASCII line mutated: %q", got)
	}
	if got := at.DecodeLine("Non ASCII: \xde\xad\xbe\xef"); got != at.Garbled {
		t.Errorf("expected Garbled sentinel, got %q", got)
	}
	if got := at.DecodeLine(""); got != "" {
		t.Errorf("empty line mutated: %q", got)
	}
}
