// Package daemon owns the radio daemon's lifecycle: the state machine
// behind start/stop/status, the serve loop that relays passthrough
// traffic, and the maintenance gate that keeps configuration work and
// the serve loop from ever sharing the link.
//
// The daemon state is exactly two flags. shouldRun reflects the last
// operator request and is foreground-written, background-read; running
// reflects actual execution of the serve loop and flows the other way.
// Both are atomics: the flags are the only synchronization between the
// control thread and the serve task.
package daemon

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/btlink/internal/bgtask"
	"github.com/srg/btlink/internal/seriallink"
)

// LinkTransport is what the controller needs from an open link: bounded
// duplex I/O and a guaranteed close.
type LinkTransport interface {
	seriallink.Transport
	io.Closer
}

// LinkOpener brings a serial link up. The default is seriallink.Open;
// tests substitute in-memory transports.
type LinkOpener func(device string, opts *seriallink.Options, logger *logrus.Logger) (LinkTransport, error)

func openSerialLink(device string, opts *seriallink.Options, logger *logrus.Logger) (LinkTransport, error) {
	return seriallink.Open(device, opts, logger)
}

// Options configures a Controller.
type Options struct {
	Link        *seriallink.Options // serial bring-up; nil uses defaults
	Dispatcher  Dispatcher          // passthrough step; nil uses NewRelayDispatcher
	Logger      *logrus.Logger      // nil is silent
	OpenLink    LinkOpener          // nil uses seriallink.Open
	RetainBytes int                 // diagnostic tap retention; 0 uses the tap default
}

// Status is the verbatim daemon state plus passthrough statistics.
type Status struct {
	ShouldRun   bool              `json:"should_run"`
	Running     bool              `json:"running"`
	Device      string            `json:"device,omitempty"`
	Passthrough map[string]uint64 `json:"passthrough,omitempty"`
}

// Controller is the daemon lifecycle state machine. One foreground
// control thread calls its methods; at most one background task (spawned
// only by Start) runs the serve loop and owns the open link.
type Controller struct {
	logger     *logrus.Logger
	linkOpts   *seriallink.Options
	dispatcher Dispatcher
	openLink   LinkOpener
	retain     int

	shouldRun atomic.Bool
	running   atomic.Bool

	acc *StatusAccumulator

	mu     sync.Mutex // foreground-side run bookkeeping
	active bool       // a serve task exists (STARTING/RUNNING/STOPPING)
	device string
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped controller.
func New(opts *Options) *Controller {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	linkOpts := opts.Link
	if linkOpts == nil {
		linkOpts = seriallink.DefaultOptions()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = NewRelayDispatcher()
	}
	openLink := opts.OpenLink
	if openLink == nil {
		openLink = openSerialLink
	}
	return &Controller{
		logger:     logger,
		linkOpts:   linkOpts,
		dispatcher: dispatcher,
		openLink:   openLink,
		retain:     opts.RetainBytes,
		acc:        NewStatusAccumulator(),
	}
}

// Start requests the daemon to run on device and spawns the serve loop
// as an independent task. It does not wait: the returned channel
// delivers nil once the loop reaches running, or the bring-up error if
// it terminates without ever getting there.
//
// Fails with ErrAlreadyRunning unless the daemon is fully stopped.
func (c *Controller) Start(device string) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan error, 1)
	done := make(chan struct{})

	c.active = true
	c.device = device
	c.cancel = cancel
	c.done = done
	c.shouldRun.Store(true)

	bgtask.Spawn(ctx, "btlink-serve", func(ctx context.Context) {
		c.serve(ctx, device, ready, done)
	})

	return ready, nil
}

// Stop requests the serve loop to exit and returns without waiting; the
// loop notices within one I/O timeout. Fails with ErrNotRunning unless
// running was observed true.
func (c *Controller) Stop() error {
	if !c.running.Load() {
		return ErrNotRunning
	}
	c.shouldRun.Store(false)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	return nil
}

// Status always succeeds and reports the two flags verbatim.
func (c *Controller) Status() Status {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()

	return Status{
		ShouldRun:   c.shouldRun.Load(),
		Running:     c.running.Load(),
		Device:      device,
		Passthrough: c.acc.Snapshot(),
	}
}

// WaitStopped blocks until the current serve task has fully exited, or
// ctx expires. It returns immediately when no task was ever started.
func (c *Controller) WaitStopped(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// serve is the background task: bring the link up, relay passthrough
// traffic until asked to stop, and never leave the link open behind.
func (c *Controller) serve(ctx context.Context, device string, ready chan<- error, done chan struct{}) {
	defer c.finish(done)

	c.logger.WithField("device", device).Info("daemon starting")

	link, err := c.openLink(device, c.linkOpts, c.logger)
	if err != nil {
		// Never reaches running; report and terminate.
		c.logger.WithError(err).Error("daemon start failed")
		ready <- err
		return
	}
	defer link.Close()

	tap := seriallink.NewTap(link, c.logger, c.retain)
	rw := seriallink.NewBlocking(tap, c.linkOpts.IOTimeout)

	c.running.Store(true)
	c.logger.WithField("device", device).Info("daemon started")
	ready <- nil

	ws := &WriteState{}
	for c.shouldRun.Load() && ctx.Err() == nil {
		if err := c.dispatcher.ProcessOne(rw, ws, c.acc); err != nil {
			// The link stays up across transient relay errors; the
			// operator decides when to stop.
			c.acc.Add(StatErrors, 1)
			c.logger.WithError(err).Warn("passthrough step failed")
		}
	}

	// running flips before the deferred link close so the invariant
	// "running implies an open link" holds on the way down too.
	c.running.Store(false)
	c.logger.WithField("device", device).Info("daemon stopped")
}

// finish returns the controller to STOPPED: flip running before
// releasing the task slot so the gate never observes a half-dead loop
// as stopped while the link is still open.
func (c *Controller) finish(done chan struct{}) {
	c.running.Store(false)

	c.mu.Lock()
	c.active = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	close(done)
}
