package main

import (
	"errors"
	"fmt"

	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/firmware"
	"github.com/srg/btlink/internal/seriallink"
)

// errUpgradeRequired turns an incompatible firmware check into a
// non-zero exit without hiding the result that was already printed.
var errUpgradeRequired = errors.New("radio firmware upgrade required")

// FormatUserError maps internal errors to actionable operator messages.
func FormatUserError(err error) string {
	var openErr *seriallink.OpenError
	var parseErr *firmware.ParseError

	switch {
	case errors.Is(err, daemon.ErrBusy):
		return "the daemon owns the serial link; stop it before running maintenance commands"
	case errors.Is(err, daemon.ErrNotRunning):
		return "the daemon is not running"
	case errors.Is(err, daemon.ErrAlreadyRunning):
		return "the daemon is already running; stop it first"
	case errors.Is(err, seriallink.ErrClaimed):
		return fmt.Sprintf("%v - another btlink instance owns the device", err)
	case errors.Is(err, seriallink.ErrTimeout):
		return fmt.Sprintf("%v - is the radio connected and in AT mode?", err)
	case errors.As(err, &openErr):
		return fmt.Sprintf("cannot open %s: %v", openErr.Device, openErr.Err)
	case errors.Is(err, firmware.ErrUnexpectedResponse):
		return fmt.Sprintf("%v - the device did not answer like a radio module", err)
	case errors.As(err, &parseErr):
		return parseErr.Error()
	}
	return err.Error()
}
