//go:build linux

package testutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const ptyPollMs = 20

// PTYLink is a serial link over the master side of a real
// pseudo-terminal. It gives link-stack tests a kernel-backed tty
// without hardware: the test drives the slave side, the code under
// test reads and writes the master through the usual context-bounded
// transport surface.
type PTYLink struct {
	master *os.File
	slave  *os.File
}

// NewPTYLink opens a raw-mode PTY pair and registers cleanup with t.
// The returned slave file is the peer endpoint for the test to talk
// through.
func NewPTYLink(t *testing.T) (*PTYLink, *os.File) {
	t.Helper()

	master, slave, err := pty.Open()
	if err != nil {
		t.Fatalf("open pty pair: %v", err)
	}

	// Raw mode keeps the line discipline from echoing or rewriting
	// traffic between the endpoints.
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		_ = master.Close()
		_ = slave.Close()
		t.Fatalf("set %s raw: %v", slave.Name(), err)
	}

	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		_ = master.Close()
		_ = slave.Close()
		t.Fatalf("set master nonblocking: %v", err)
	}

	l := &PTYLink{master: master, slave: slave}
	t.Cleanup(func() { _ = l.Close() })
	return l, slave
}

// TTYName returns the slave path, e.g. "/dev/pts/5".
func (l *PTYLink) TTYName() string {
	return l.slave.Name()
}

func (l *PTYLink) ReadContext(ctx context.Context, p []byte) (int, error) {
	for {
		if err := l.wait(ctx, unix.POLLIN); err != nil {
			return 0, err
		}
		n, err := unix.Read(int(l.master.Fd()), p)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return 0, fmt.Errorf("pty read: %w", err)
		}
		return n, nil
	}
}

func (l *PTYLink) WriteContext(ctx context.Context, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := l.wait(ctx, unix.POLLOUT); err != nil {
			return written, err
		}
		n, err := unix.Write(int(l.master.Fd()), p[written:])
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return written, fmt.Errorf("pty write: %w", err)
		}
		written += n
	}
	return written, nil
}

// wait polls the master in short slices so the context stays
// responsive, returning ctx.Err() on expiry.
func (l *PTYLink) wait(ctx context.Context, events int16) error {
	fds := []unix.PollFd{{Fd: int32(l.master.Fd()), Events: events}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.Poll(fds, ptyPollMs)
		if err != nil && !errors.Is(err, syscall.EINTR) {
			return fmt.Errorf("pty poll: %w", err)
		}
		if n > 0 {
			return nil
		}
	}
}

func (l *PTYLink) Close() error {
	merr := l.master.Close()
	serr := l.slave.Close()
	if merr != nil {
		return merr
	}
	return serr
}
