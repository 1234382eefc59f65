// Package seriallink owns the serial bring-up for the radio link: it
// opens and configures the UART, enforces exclusive ownership of each
// device path, and provides the two transport wrappers the rest of the
// daemon builds on (a logging tap and a fixed-timeout adapter).
package seriallink

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	serial "github.com/allbin/go-serial"
	"github.com/cornelk/hashmap"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// Transport is a duplex byte stream whose calls are bounded by context
// deadlines. Link, Tap and the test transports all implement it.
type Transport interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
	WriteContext(ctx context.Context, p []byte) (int, error)
}

// Options configures serial bring-up. Zero values take defaults.
type Options struct {
	BaudRate  int           `default:"9600"`
	IOTimeout time.Duration `default:"1s"`
}

// DefaultOptions returns the bring-up defaults (9600 baud, CTS/RTS
// hardware flow control, 1s per-call I/O bound).
func DefaultOptions() *Options {
	opts := &Options{}
	defaults.SetDefaults(opts)
	return opts
}

// serialPort is the slice of the serial library the Link needs. Kept as
// an interface so tests can substitute a PTY-backed port.
type serialPort interface {
	io.ReadWriteCloser
	ReadContext(ctx context.Context, p []byte) (int, error)
	WriteContext(ctx context.Context, p []byte) (int, error)
	SetRTS(bool) error
	SetDTR(bool) error
}

// openPort opens and configures the UART in one step: speed and CTS
// hardware flow control are applied at open, and the library closes the
// descriptor itself if configuration fails partway. Overridable in tests.
var openPort = func(device string, baud int) (serialPort, error) {
	return serial.Open(device,
		serial.WithBaudRate(baud),
		serial.WithFlowControl(serial.FlowControlCTS),
	)
}

// claimed tracks device paths with an open Link. At most one Link per
// device at any time; a claim is released on every Open failure path and
// on Close.
var claimed = hashmap.New[string, struct{}]()

// Link is exclusive ownership of one open, configured serial device.
type Link struct {
	device string
	port   serialPort
	logger *logrus.Logger
	opts   *Options
	closed atomic.Bool
}

// Open claims device, opens it and negotiates speed and hardware flow
// control. On any failure the claim is released, nothing stays open, and
// the first underlying error is returned wrapped in *OpenError.
func Open(device string, opts *Options, logger *logrus.Logger) (*Link, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	if !claimed.Insert(device, struct{}{}) {
		return nil, &OpenError{Device: device, Err: ErrClaimed}
	}

	port, err := openPort(device, opts.BaudRate)
	if err != nil {
		claimed.Del(device)
		return nil, &OpenError{Device: device, Err: err}
	}

	logger.WithFields(logrus.Fields{
		"device": device,
		"baud":   opts.BaudRate,
	}).Debug("serial link open")

	return &Link{device: device, port: port, logger: logger, opts: opts}, nil
}

// Device returns the device path this link owns.
func (l *Link) Device() string { return l.device }

// IOTimeout returns the per-call bound this link was opened with.
func (l *Link) IOTimeout() time.Duration { return l.opts.IOTimeout }

func (l *Link) ReadContext(ctx context.Context, p []byte) (int, error) {
	return l.port.ReadContext(ctx, p)
}

func (l *Link) WriteContext(ctx context.Context, p []byte) (int, error) {
	return l.port.WriteContext(ctx, p)
}

// SetRTS drives the RTS modem line. Used by the mode controller.
func (l *Link) SetRTS(level bool) error { return l.port.SetRTS(level) }

// SetDTR drives the DTR modem line.
func (l *Link) SetDTR(level bool) error { return l.port.SetDTR(level) }

// Close releases the device claim and closes the descriptor. Idempotent;
// only the first call reaches the port.
func (l *Link) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.port.Close()
	claimed.Del(l.device)
	l.logger.WithField("device", l.device).Debug("serial link closed")
	return err
}
