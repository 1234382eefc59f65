package daemon_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/seriallink"
	"github.com/stretchr/testify/require"
)

// fakeLink is an in-memory LinkTransport. Scripted chunks are served in
// order; with the script drained, reads park until the context deadline,
// like an idle radio behind a bounded transport.
type fakeLink struct {
	mu      sync.Mutex
	script  [][]byte
	written []byte
	closed  atomic.Bool
}

func (f *fakeLink) ReadContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	if len(f.script) > 0 {
		n := copy(p, f.script[0])
		f.script = f.script[1:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return 0, ctx.Err()
}

func (f *fakeLink) WriteContext(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeLink) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeLink) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.written)
}

type fakeOpener struct {
	mu    sync.Mutex
	links []*fakeLink
	err   error
	opens int
}

func (o *fakeOpener) open(device string, opts *seriallink.Options, logger *logrus.Logger) (daemon.LinkTransport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	l := &fakeLink{}
	o.links = append(o.links, l)
	return l, nil
}

func newTestController(opener *fakeOpener) *daemon.Controller {
	return daemon.New(&daemon.Options{
		Link:     &seriallink.Options{BaudRate: 9600, IOTimeout: 10 * time.Millisecond},
		OpenLink: opener.open,
	})
}

func TestStatusBeforeAnyStart(t *testing.T) {
	c := daemon.New(nil)
	st := c.Status()
	require.False(t, st.ShouldRun)
	require.False(t, st.Running)
	require.Empty(t, st.Device)
}

func TestStartStopLifecycle(t *testing.T) {
	opener := &fakeOpener{}
	c := newTestController(opener)

	ready, err := c.Start("/dev/ttyS2")
	require.NoError(t, err)
	require.NoError(t, <-ready, "serve loop must reach running")

	st := c.Status()
	require.True(t, st.ShouldRun)
	require.True(t, st.Running)
	require.Equal(t, "/dev/ttyS2", st.Device)

	// Once running, a second start is rejected.
	_, err = c.Start("/dev/ttyS2")
	require.ErrorIs(t, err, daemon.ErrAlreadyRunning)

	require.NoError(t, c.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.WaitStopped(ctx))

	st = c.Status()
	require.False(t, st.ShouldRun)
	require.False(t, st.Running)
	require.Len(t, opener.links, 1)
	require.True(t, opener.links[0].closed.Load(), "link closed on serve-loop exit")
}

func TestStopWhileNotRunning(t *testing.T) {
	c := daemon.New(nil)
	require.ErrorIs(t, c.Stop(), daemon.ErrNotRunning)

	st := c.Status()
	require.False(t, st.ShouldRun, "rejected stop leaves state unchanged")
	require.False(t, st.Running)
}

func TestStartOpenFailureNeverReachesRunning(t *testing.T) {
	opener := &fakeOpener{err: errors.New("ENOENT")}
	c := newTestController(opener)

	ready, err := c.Start("/dev/ttyS9")
	require.NoError(t, err, "spawn itself succeeds")
	require.ErrorIs(t, <-ready, opener.err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.WaitStopped(ctx))
	require.False(t, c.Status().Running)

	// The controller is restartable after a failed bring-up.
	opener.mu.Lock()
	opener.err = nil
	opener.mu.Unlock()
	ready, err = c.Start("/dev/ttyS9")
	require.NoError(t, err)
	require.NoError(t, <-ready)
	require.NoError(t, c.Stop())
	require.NoError(t, c.WaitStopped(ctx))
}

func TestRestartAfterStop(t *testing.T) {
	opener := &fakeOpener{}
	c := newTestController(opener)

	for i := 0; i < 2; i++ {
		ready, err := c.Start("/dev/ttyS2")
		require.NoError(t, err)
		require.NoError(t, <-ready)
		require.NoError(t, c.Stop())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, c.WaitStopped(ctx))
		cancel()
	}
	require.Len(t, opener.links, 2)
	for _, l := range opener.links {
		require.True(t, l.closed.Load())
	}
}

func TestServeLoopAccountsTraffic(t *testing.T) {
	opener := &fakeOpener{}
	c := newTestController(opener)

	ready, err := c.Start("/dev/ttyS2")
	require.NoError(t, err)
	require.NoError(t, <-ready)

	opener.mu.Lock()
	link := opener.links[0]
	opener.mu.Unlock()

	link.mu.Lock()
	link.script = append(link.script, []byte("telemetry line\n"), []byte("another\n"))
	link.mu.Unlock()

	require.Eventually(t, func() bool {
		st := c.Status()
		return st.Passthrough[daemon.StatMessages] == 2 &&
			st.Passthrough[daemon.StatBytesIn] == uint64(len("telemetry line\nanother\n"))
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.WaitStopped(ctx))
}
