package daemon

import (
	"bytes"
	"errors"
	"io"

	"github.com/srg/btlink/internal/seriallink"
)

// Dispatcher runs one bounded passthrough step: flush what is pending,
// take in what the radio delivered, account for it. The serve loop calls
// it repeatedly while the daemon should run; each call is bounded by the
// link's I/O timeout, which is what bounds the loop's stop latency.
type Dispatcher interface {
	ProcessOne(rw io.ReadWriter, ws *WriteState, acc *StatusAccumulator) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(rw io.ReadWriter, ws *WriteState, acc *StatusAccumulator) error

func (f DispatcherFunc) ProcessOne(rw io.ReadWriter, ws *WriteState, acc *StatusAccumulator) error {
	return f(rw, ws, acc)
}

// relayChunk is the per-step inbound read size.
const relayChunk = 64

// NewRelayDispatcher returns the default passthrough step: it drains the
// write state, reads one chunk of application traffic and accounts
// bytes and newline-delimited messages. An idle link (timeout) is a
// normal step, not an error.
func NewRelayDispatcher() Dispatcher {
	return DispatcherFunc(func(rw io.ReadWriter, ws *WriteState, acc *StatusAccumulator) error {
		if pending := ws.Remaining(); len(pending) > 0 {
			n, err := rw.Write(pending)
			ws.Advance(n)
			acc.Add(StatBytesOut, uint64(n))
			if err != nil && !errors.Is(err, seriallink.ErrTimeout) {
				return err
			}
		}

		buf := make([]byte, relayChunk)
		n, err := rw.Read(buf)
		if n > 0 {
			acc.Add(StatBytesIn, uint64(n))
			if m := bytes.Count(buf[:n], []byte{'\n'}); m > 0 {
				acc.Add(StatMessages, uint64(m))
			}
		}
		if err != nil {
			if errors.Is(err, seriallink.ErrTimeout) {
				acc.Add(StatIdle, 1)
				return nil
			}
			return err
		}
		return nil
	})
}
