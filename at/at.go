package at

// Terminal control.
const (
	CRLF          = "\r\n"
	CommandPrefix = "at+"
)

// Garbled is substituted for lines that fail ASCII decoding, typically
// the result of a misconfigured baud rate or boot-time line noise. It
// matches no marker, so downstream it behaves like any other untagged
// line.
const Garbled = "�"

// LineType identifies the protocol role of a received line.
type LineType int

const (
	TypeSuccess LineType = iota // OK / Initialization OK
	TypeFailure                 // ERROR
	TypeEvent                   // at+recv=...
	TypeOther                   // boot banners, blank lines, noise
)

// Markers holds the response and event prefixes of a firmware dialect.
// Matching is a literal, case-preserving prefix test; the remainder of a
// matched line is payload and is never mutated by this package.
type Markers struct {
	// OK tags a successful command response.
	OK string
	// InitOK tags the initialization-success response of dialects that
	// have one. Empty otherwise.
	InitOK string
	// Error tags a failed command response.
	Error string
	// Event tags an unsolicited event notification.
	Event string
}

// DialectV2 returns the marker set of the V2 firmware. Success and error
// markers carry no separator, the payload follows immediately
// ("OK0", "ERROR-1").
func DialectV2() Markers {
	return Markers{
		OK:    "OK",
		Error: "ERROR",
		Event: "at+recv=",
	}
}

// DialectV3 returns the marker set of the V3 firmware. The success
// marker includes the separating space; a bare "OK" line is not a
// response in this dialect.
func DialectV3() Markers {
	return Markers{
		OK:     "OK ",
		InitOK: "Initialization OK",
		Error:  "ERROR:",
		Event:  "at+recv=",
	}
}

// Classify identifies the nature of the module output.
func Classify(m Markers, line string) LineType {
	switch {
	case hasPrefix(line, m.Event):
		return TypeEvent
	case hasPrefix(line, m.OK), hasPrefix(line, m.InitOK):
		return TypeSuccess
	case hasPrefix(line, m.Error):
		return TypeFailure
	default:
		return TypeOther
	}
}

// Tagged reports whether line carries one of the dialect's prefixes.
func (m Markers) Tagged(line string) bool {
	return Classify(m, line) != TypeOther
}

// hasPrefix is strings.HasPrefix guarded against empty markers, which
// would otherwise match every line.
func hasPrefix(line, marker string) bool {
	return marker != "" && len(line) >= len(marker) && line[:len(marker)] == marker
}
