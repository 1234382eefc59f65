// Package modectl switches the radio between AT configuration mode and
// its default data-passthrough mode. The BL600-class firmware runs a
// virtual serial port bridge by default; "^^^" breaks out of it into
// command mode and "AT+RUN" resumes the bridge application.
package modectl

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/srg/btlink/internal/atproto"
	"github.com/srg/btlink/internal/seriallink"
)

// Mode is a link operating mode target.
type Mode string

const (
	// ModeAT selects the command/configuration mode.
	ModeAT Mode = "at"
	// ModeDefault selects the data-passthrough mode.
	ModeDefault Mode = "default"
)

// breakoutSequence drops the radio out of passthrough into command mode.
// It is sent raw: a terminator would be forwarded over the air instead.
const breakoutSequence = "^^^"

// resumeCommand restarts the radio's autorun bridge application.
const resumeCommand = "AT+RUN"

// ErrUnknownMode reports a mode argument outside {at, default}.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode validates a textual mode target.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAT, ModeDefault:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w %q (want at or default)", ErrUnknownMode, s)
	}
}

// Controller issues the link-level mode-switch sequences.
type Controller struct {
	session *atproto.Session
	logger  *logrus.Logger
}

// New returns a mode controller (nil logger is silent).
func New(logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Controller{session: atproto.NewSession(logger), logger: logger}
}

// Switch drives the link to the target mode. The caller must hold the
// link exclusively; the daemon's maintenance gate enforces that.
func (c *Controller) Switch(rw io.ReadWriter, target Mode) error {
	c.logger.WithField("mode", target).Info("switching link mode")

	switch target {
	case ModeAT:
		if _, err := io.WriteString(rw, breakoutSequence); err != nil {
			return fmt.Errorf("mode %s: %w", target, err)
		}
		// The radio acknowledges the breakout on its next idle tick;
		// absence of the ack only means it already was in command mode.
		buf := atproto.NewResponseBuffer(0)
		if _, err := drainAck(rw, buf); err != nil {
			return fmt.Errorf("mode %s: %w", target, err)
		}
		return nil

	case ModeDefault:
		buf := atproto.NewResponseBuffer(0)
		if _, err := c.session.Exec(rw, resumeCommand, buf); err != nil &&
			!errors.Is(err, seriallink.ErrTimeout) {
			return fmt.Errorf("mode %s: %w", target, err)
		}
		return nil

	default:
		return fmt.Errorf("%w %q", ErrUnknownMode, target)
	}
}

// drainAck reads one bounded response, treating a timeout as no ack.
func drainAck(r io.Reader, buf *atproto.ResponseBuffer) (int, error) {
	chunk := make([]byte, buf.Cap())
	n, err := r.Read(chunk)
	if n > 0 {
		buf.Append(chunk[:n])
	}
	if err != nil && !errors.Is(err, seriallink.ErrTimeout) {
		return buf.Len(), err
	}
	return buf.Len(), nil
}
