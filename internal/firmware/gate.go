// Package firmware implements the compatibility gate between the daemon
// and the attached radio: it parses the firmware version out of the
// radio's identify response and compares it against the minimum version
// the daemon is known to work with.
//
// Proceeding against incompatible firmware is a safety risk for the
// embedding flight controller, so the parser is strict about structure
// (the tagged field marker must be present, the version must be four
// integers) while staying tolerant of banner noise around it.
package firmware

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// identifyPrefix is the tagged field marker the radio puts in front of
// the version in its "AT I 3" response: response code 10, field 3.
const identifyPrefix = "10\t3\t"

// versionSeparators are the characters that delimit version tokens.
// Runs of separators collapse, so a trailing CRLF yields no empty token.
const versionSeparators = ".\r\n"

// IdentifyCommand is the AT exchange whose response carries the
// firmware version.
const IdentifyCommand = "AT I 3"

// ErrUnexpectedResponse reports an identify response without the tagged
// field marker: the radio answered, but not with a version record.
var ErrUnexpectedResponse = errors.New("unexpected identify response")

// ParseError reports a structurally located but malformed version:
// a non-numeric token, or fewer than four tokens.
type ParseError struct {
	Token string // offending token, empty when the input ran out
	Index int    // 0-based position of the token in the version tuple
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("firmware version: want 4 numeric fields, input ended at field %d", e.Index)
	}
	return fmt.Sprintf("firmware version: field %d %q is not an unsigned integer", e.Index, e.Token)
}

// Is allows errors.Is comparison against an untyped *ParseError target.
func (e *ParseError) Is(target error) bool {
	_, ok := target.(*ParseError)
	return ok
}

// CheckResult is the outcome of a completed version check. Incompatible
// firmware is a negative result, not a failure: the check itself worked.
type CheckResult struct {
	Required   Version `json:"required"`
	Discovered Version `json:"discovered"`
	Compatible bool    `json:"compatible"`
}

// Parse extracts a Version from a raw identify response.
//
// The tagged field marker must appear somewhere in resp; everything
// before it is banner noise and ignored. From just after the marker the
// input is tokenized on '.', CR and LF, left to right. Exactly four
// unsigned integers are required; a fifth and later tokens are ignored.
// Integer syntax follows strtoul base 0, as the radio's documentation
// writes build numbers in hex on occasion.
func Parse(resp []byte) (Version, error) {
	i := bytes.Index(resp, []byte(identifyPrefix))
	if i < 0 {
		return Version{}, ErrUnexpectedResponse
	}

	var fields [4]uint32
	n := 0
	for _, tok := range bytes.FieldsFunc(resp[i+len(identifyPrefix):], isVersionSeparator) {
		u, err := strconv.ParseUint(string(tok), 0, 32)
		if err != nil {
			return Version{}, &ParseError{Token: string(tok), Index: n}
		}
		fields[n] = uint32(u)
		n++
		if n == len(fields) {
			return Version{Major: fields[0], Minor: fields[1], Patch: fields[2], Build: fields[3]}, nil
		}
	}
	return Version{}, &ParseError{Index: n}
}

func isVersionSeparator(r rune) bool {
	for _, s := range versionSeparators {
		if r == s {
			return true
		}
	}
	return false
}

// Check compares a discovered version against MinimumFirmware.
func Check(discovered Version) CheckResult {
	return CheckAgainst(MinimumFirmware, discovered)
}

// CheckAgainst compares discovered against an explicit minimum.
// Compatible means minimum <= discovered in the tuple order.
func CheckAgainst(minimum, discovered Version) CheckResult {
	return CheckResult{
		Required:   minimum,
		Discovered: discovered,
		Compatible: !discovered.Less(minimum),
	}
}
