package atproto

// DefaultResponseCapacity fits every response the daemon asks the radio
// for; identify responses are the longest at around 20 bytes.
const DefaultResponseCapacity = 32

// ResponseBuffer is a fixed-capacity buffer holding the inbound half of
// one AT exchange. Capacity never grows: bytes past it are counted and
// discarded, not buffered. Reset zeroes the storage so a short response
// can never expose stale bytes from the previous exchange.
type ResponseBuffer struct {
	buf     []byte
	n       int
	dropped int
}

// NewResponseBuffer allocates a buffer of the given capacity
// (0 or negative uses DefaultResponseCapacity).
func NewResponseBuffer(capacity int) *ResponseBuffer {
	if capacity <= 0 {
		capacity = DefaultResponseCapacity
	}
	return &ResponseBuffer{buf: make([]byte, capacity)}
}

// Reset clears the buffer for the next exchange, zeroing the storage.
func (b *ResponseBuffer) Reset() {
	for i := range b.buf {
		b.buf[i] = 0
	}
	b.n = 0
	b.dropped = 0
}

// Append stores as much of p as fits and returns the number of bytes
// accepted. The rest is dropped and counted.
func (b *ResponseBuffer) Append(p []byte) int {
	accepted := copy(b.buf[b.n:], p)
	b.n += accepted
	b.dropped += len(p) - accepted
	return accepted
}

// Bytes returns the stored response. The slice aliases the buffer and is
// valid until the next Reset or Append.
func (b *ResponseBuffer) Bytes() []byte { return b.buf[:b.n] }

// Len returns the number of stored bytes.
func (b *ResponseBuffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *ResponseBuffer) Cap() int { return len(b.buf) }

// Full reports whether the buffer cannot accept more bytes.
func (b *ResponseBuffer) Full() bool { return b.n == len(b.buf) }

// Dropped returns how many bytes were truncated since the last Reset.
func (b *ResponseBuffer) Dropped() int { return b.dropped }

func (b *ResponseBuffer) String() string { return string(b.Bytes()) }
