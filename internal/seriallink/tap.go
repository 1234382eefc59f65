package seriallink

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
)

// Default tags match the original daemon's diagnostic output.
const (
	ReadTag  = "uart read "
	WriteTag = "uart write"
)

// DefaultRetainBytes is the default capacity of the tap's retention ring.
const DefaultRetainBytes = 1024

// Tap is a transparent duplex mirror: it forwards every call to the
// wrapped transport unchanged and copies the bytes that actually moved,
// tagged by direction, to the logger and into a bounded retention ring.
// The caller observes exactly what the wire carried.
type Tap struct {
	inner    Transport
	logger   *logrus.Logger
	readTag  string
	writeTag string

	mu     sync.Mutex
	retain *ringbuffer.RingBuffer
}

// NewTap wraps inner. retainBytes bounds the retention ring (0 uses
// DefaultRetainBytes); when the ring is full the oldest bytes are
// dropped, never the transported ones.
func NewTap(inner Transport, logger *logrus.Logger, retainBytes int) *Tap {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if retainBytes <= 0 {
		retainBytes = DefaultRetainBytes
	}
	return &Tap{
		inner:    inner,
		logger:   logger,
		readTag:  ReadTag,
		writeTag: WriteTag,
		retain:   ringbuffer.New(retainBytes),
	}
}

func (t *Tap) ReadContext(ctx context.Context, p []byte) (int, error) {
	n, err := t.inner.ReadContext(ctx, p)
	if n > 0 {
		t.observe(t.readTag, p[:n])
	}
	return n, err
}

func (t *Tap) WriteContext(ctx context.Context, p []byte) (int, error) {
	n, err := t.inner.WriteContext(ctx, p)
	if n > 0 {
		t.observe(t.writeTag, p[:n])
	}
	return n, err
}

// Recent returns a copy of the retained traffic, oldest first.
func (t *Tap) Recent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retain.Bytes(nil)
}

func (t *Tap) observe(tag string, b []byte) {
	t.logger.WithField("n", len(b)).Debugf("%s %q", tag, b)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Keep only the newest bytes when the mirrored chunk alone exceeds
	// the ring.
	if len(b) > t.retain.Capacity() {
		b = b[len(b)-t.retain.Capacity():]
		t.retain.Reset()
	}
	// Drop oldest until the chunk fits.
	if free := t.retain.Free(); free < len(b) {
		scratch := make([]byte, len(b)-free)
		_, _ = t.retain.Read(scratch)
	}
	_, _ = t.retain.Write(b)
}
