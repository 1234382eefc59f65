// Package atproto implements the single command/response AT exchange the
// daemon needs against the radio. It is deliberately not an AT grammar
// interpreter: one terminator-delimited command goes out, one bounded
// response comes back.
package atproto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/srg/btlink/internal/seriallink"
)

// CommandTerminator ends every outbound command.
const CommandTerminator = "\r"

// IOError reports a failed read or write during an exchange.
type IOError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("at %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is allows errors.Is comparison against an untyped *IOError target.
func (e *IOError) Is(target error) bool {
	_, ok := target.(*IOError)
	return ok
}

// Session executes AT exchanges over any transport. The transport is
// expected to be timeout-bounded (see seriallink.Blocking); the session
// itself never loops past a timeout.
type Session struct {
	logger *logrus.Logger
}

// NewSession returns a session logging through logger (nil is silent).
func NewSession(logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Session{logger: logger}
}

// Exec sends command followed by CommandTerminator and reads the
// response into buf until a CR/LF terminator arrives after at least one
// payload byte, or the transport times out.
//
// Leading CR/LF bytes are skipped so a prompt newline cannot end the
// exchange with an empty response. Bytes past the buffer capacity are
// truncated, not buffered. A timeout before any payload byte fails with
// seriallink.ErrTimeout; a timeout after payload completes the exchange
// with what arrived, since the radio's banners do not always close the
// final line.
//
// Returns the number of response bytes stored in buf.
func (s *Session) Exec(rw io.ReadWriter, command string, buf *ResponseBuffer) (int, error) {
	buf.Reset()

	if _, err := io.WriteString(rw, command+CommandTerminator); err != nil {
		return 0, &IOError{Op: "write", Err: err}
	}
	s.logger.WithField("command", command).Debug("at exchange")

	chunk := make([]byte, DefaultResponseCapacity)
	for {
		n, err := rw.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if buf.Len() == 0 {
				data = bytes.TrimLeft(data, "\r\n")
			}
			terminated := false
			if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
				data = data[:i]
				terminated = true
			}
			buf.Append(data)
			if terminated && buf.Len() > 0 {
				return buf.Len(), nil
			}
		}
		if err != nil {
			if errors.Is(err, seriallink.ErrTimeout) {
				if buf.Len() > 0 {
					return buf.Len(), nil
				}
				return 0, err
			}
			return buf.Len(), &IOError{Op: "read", Err: err}
		}
	}
}

// Verbose echo styling.
var (
	commandStyle  = color.New(color.FgCyan)
	responseStyle = color.New(color.FgGreen)
)

// ExecVerbose is Exec with a human-readable echo of the command and the
// response written to out.
func (s *Session) ExecVerbose(rw io.ReadWriter, out io.Writer, command string, buf *ResponseBuffer) (int, error) {
	fmt.Fprintln(out, commandStyle.Sprint(command))

	n, err := s.Exec(rw, command, buf)
	if err != nil {
		return n, err
	}

	fmt.Fprintln(out, responseStyle.Sprint(buf.String()))
	if d := buf.Dropped(); d > 0 {
		fmt.Fprintf(out, "(%d bytes truncated)\n", d)
	}
	return n, nil
}
