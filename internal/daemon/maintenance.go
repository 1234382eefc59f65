package daemon

import (
	"fmt"
	"io"

	"github.com/srg/btlink/internal/atproto"
	"github.com/srg/btlink/internal/firmware"
	"github.com/srg/btlink/internal/modectl"
	"github.com/srg/btlink/internal/seriallink"
)

// Maintenance operations need exclusive, momentary link ownership, so
// each is rejected with ErrBusy up front when the serve loop is running.
// The gate checks running only: a stop() racing a maintenance call can
// pass it while the loop still winds down, in which case the open itself
// fails on the device claim. Callers wanting a hard ordering use
// WaitStopped between stop and maintenance.

// maintain gates on running, opens the link, runs fn and closes the link
// on every path.
func (c *Controller) maintain(device string, fn func(rw io.ReadWriter) error) error {
	if c.running.Load() {
		return ErrBusy
	}

	link, err := c.openLink(device, c.linkOpts, c.logger)
	if err != nil {
		return err
	}
	defer link.Close()

	return fn(seriallink.NewBlocking(link, c.linkOpts.IOTimeout))
}

// ExecAT runs each command as one AT exchange, echoing numbered
// command/response pairs to out. It stops at the first failing exchange.
func (c *Controller) ExecAT(device string, commands []string, out io.Writer) error {
	session := atproto.NewSession(c.logger)
	buf := atproto.NewResponseBuffer(0)

	return c.maintain(device, func(rw io.ReadWriter) error {
		for i, cmd := range commands {
			fmt.Fprintf(out, "%d# ", i)
			if _, err := session.ExecVerbose(rw, out, cmd, buf); err != nil {
				return err
			}
		}
		return nil
	})
}

// SwitchMode drives the link into AT or default passthrough mode.
func (c *Controller) SwitchMode(device string, target modectl.Mode) error {
	modes := modectl.New(c.logger)
	return c.maintain(device, func(rw io.ReadWriter) error {
		return modes.Switch(rw, target)
	})
}

// CheckFirmware asks the radio to identify itself and gates the
// discovered firmware version against the minimum policy. An
// incompatible version is reported in the result, not as an error.
func (c *Controller) CheckFirmware(device string) (firmware.CheckResult, error) {
	session := atproto.NewSession(c.logger)
	buf := atproto.NewResponseBuffer(0)

	var res firmware.CheckResult
	err := c.maintain(device, func(rw io.ReadWriter) error {
		if _, err := session.Exec(rw, firmware.IdentifyCommand, buf); err != nil {
			return err
		}
		v, err := firmware.Parse(buf.Bytes())
		if err != nil {
			return err
		}
		res = firmware.Check(v)
		return nil
	})
	return res, err
}
