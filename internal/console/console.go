// Package console is the line-oriented operator console over one daemon
// controller. The daemon lifecycle spans commands, so unlike the
// one-shot CLI surface the console keeps all of start/stop/status/
// maintenance meaningful within a single process, the way the radio
// module behaves on the flight controller's shell.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/term"

	"github.com/srg/btlink/internal/bgtask"
	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/firmware"
	"github.com/srg/btlink/internal/modectl"
)

// Prog is the name commands and status lines are printed under.
const Prog = "btlink"

// command is one console operation. Argument counts are validated
// before dispatch; maxArgs < 0 means unlimited.
type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(args []string) int
}

// Console dispatches operator commands against a single controller.
type Console struct {
	ctrl     *daemon.Controller
	device   string // default device for mode
	out      io.Writer
	errOut   io.Writer
	logger   *logrus.Logger
	commands *orderedmap.OrderedMap[string, command]
	quit     bool
}

// New builds a console. device is the default target for mode switches;
// it may be empty, in which case mode requires an explicit device.
func New(ctrl *daemon.Controller, device string, out, errOut io.Writer, logger *logrus.Logger) *Console {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	c := &Console{
		ctrl:     ctrl,
		device:   device,
		out:      out,
		errOut:   errOut,
		logger:   logger,
		commands: orderedmap.New[string, command](),
	}

	c.commands.Set("start", command{usage: "start <device>", minArgs: 1, maxArgs: 1, run: c.runStart})
	c.commands.Set("stop", command{usage: "stop", run: c.runStop})
	c.commands.Set("status", command{usage: "status", run: c.runStatus})
	c.commands.Set("mode", command{usage: "mode <at|default> [device]", minArgs: 1, maxArgs: 2, run: c.runMode})
	c.commands.Set("at", command{usage: "at <device> <command> [command...]", minArgs: 2, maxArgs: -1, run: c.runAT})
	c.commands.Set("firmware-version", command{usage: "firmware-version <device>", minArgs: 1, maxArgs: 1, run: c.runFirmwareVersion})
	c.commands.Set("help", command{usage: "help", run: func([]string) int { c.Usage(); return 0 }})
	c.commands.Set("exit", command{usage: "exit", run: func([]string) int { c.quit = true; return 0 }})

	return c
}

// Usage prints one line per command in declaration order.
func (c *Console) Usage() {
	fmt.Fprintln(c.errOut, "Usage:")
	for pair := c.commands.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(c.errOut, "\t%s %s\n", Prog, pair.Value.usage)
	}
}

// Dispatch validates and runs one operator command, returning its exit
// code. Unknown names and argument-count mismatches print usage and
// return 1 without reaching any handler.
func (c *Console) Dispatch(args []string) int {
	if len(args) == 0 {
		c.Usage()
		return 1
	}
	cmd, ok := c.commands.Get(args[0])
	if !ok {
		fmt.Fprintf(c.errOut, "%s: unknown command %q\n", Prog, args[0])
		c.Usage()
		return 1
	}
	rest := args[1:]
	if len(rest) < cmd.minArgs || (cmd.maxArgs >= 0 && len(rest) > cmd.maxArgs) {
		c.Usage()
		return 1
	}
	return cmd.run(rest)
}

// Run reads commands line by line until EOF, ctx expiry, or exit.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	prompt := color.New(color.FgCyan).Sprintf("%s> ", Prog)

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if interactive {
			fmt.Fprint(c.out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		c.Dispatch(fields)
		if c.quit {
			return nil
		}
	}
}

func (c *Console) fail(err error) int {
	fmt.Fprintf(c.errOut, "%s: %v\n", Prog, err)
	return 1
}

func (c *Console) runStart(args []string) int {
	ready, err := c.ctrl.Start(args[0])
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "%s starting on %s...\n", Prog, args[0])

	// start is asynchronous; a bring-up failure surfaces on the console
	// when the serve task reports it.
	bgtask.Spawn(context.Background(), "btlink-start-report", func(context.Context) {
		if err := <-ready; err != nil {
			fmt.Fprintf(c.errOut, "%s: start failed: %v\n", Prog, err)
		}
	})
	return 0
}

func (c *Console) runStop(args []string) int {
	if err := c.ctrl.Stop(); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "%s stopping...\n", Prog)
	return 0
}

func (c *Console) runStatus(args []string) int {
	st := c.ctrl.Status()
	fmt.Fprint(c.out, FormatStatus(st))
	return 0
}

func (c *Console) runMode(args []string) int {
	target, err := modectl.ParseMode(args[0])
	if err != nil {
		c.Usage()
		return 1
	}
	device := c.device
	if len(args) == 2 {
		device = args[1]
	}
	if device == "" {
		c.Usage()
		return 1
	}
	if err := c.ctrl.SwitchMode(device, target); err != nil {
		return c.fail(err)
	}
	return 0
}

func (c *Console) runAT(args []string) int {
	if err := c.ctrl.ExecAT(args[0], args[1:], c.out); err != nil {
		return c.fail(err)
	}
	return 0
}

func (c *Console) runFirmwareVersion(args []string) int {
	res, err := c.ctrl.CheckFirmware(args[0])
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprint(c.out, FormatCheckResult(res))
	if !res.Compatible {
		return 1
	}
	return 0
}

// FormatStatus renders the daemon state the way the radio module reports
// it on the flight controller.
func FormatStatus(st daemon.Status) string {
	var b strings.Builder
	if st.ShouldRun {
		fmt.Fprintf(&b, "%s should run.\n", Prog)
	} else {
		fmt.Fprintf(&b, "%s should NOT run.\n", Prog)
	}
	if st.Running {
		fmt.Fprintf(&b, "%s is running.\n", Prog)
	} else {
		fmt.Fprintf(&b, "%s is NOT running.\n", Prog)
	}
	if st.Device != "" {
		fmt.Fprintf(&b, "device: %s\n", st.Device)
	}
	if len(st.Passthrough) > 0 {
		names := make([]string, 0, len(st.Passthrough))
		for name := range st.Passthrough {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, st.Passthrough[name]))
		}
		fmt.Fprintf(&b, "passthrough: %s\n", strings.Join(parts, " "))
	}
	return b.String()
}

// FormatCheckResult renders a completed version check, both tuples
// always included.
func FormatCheckResult(res firmware.CheckResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "required version: %s\n", res.Required)
	fmt.Fprintf(&b, "radio's version:  %s\n", res.Discovered)
	if res.Compatible {
		b.WriteString("ready to work.\n")
	} else {
		b.WriteString("upgrade required.\n")
	}
	return b.String()
}
