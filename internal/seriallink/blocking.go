package seriallink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultIOTimeout bounds a single blocking I/O call. It is also the
// worst-case latency at which the serve loop notices a stop request.
const DefaultIOTimeout = 1000 * time.Millisecond

// Blocking turns a context-bounded Transport into a plain io.ReadWriter
// whose every call is bounded by a fixed timeout. A call that exceeds
// the bound fails with ErrTimeout instead of blocking indefinitely.
type Blocking struct {
	inner   Transport
	timeout time.Duration
}

// NewBlocking wraps inner with a per-call bound. timeout <= 0 uses
// DefaultIOTimeout.
func NewBlocking(inner Transport, timeout time.Duration) *Blocking {
	if timeout <= 0 {
		timeout = DefaultIOTimeout
	}
	return &Blocking{inner: inner, timeout: timeout}
}

// Timeout returns the per-call bound.
func (b *Blocking) Timeout() time.Duration { return b.timeout }

func (b *Blocking) Read(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	n, err := b.inner.ReadContext(ctx, p)
	return n, b.mapErr(err)
}

func (b *Blocking) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	n, err := b.inner.WriteContext(ctx, p)
	return n, b.mapErr(err)
}

func (b *Blocking) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrTimeout, b.timeout)
	}
	return err
}
