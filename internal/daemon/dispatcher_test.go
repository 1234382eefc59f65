package daemon_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/srg/btlink/internal/daemon"
	"github.com/srg/btlink/internal/seriallink"
	"github.com/stretchr/testify/require"
)

type stepRW struct {
	in      []byte
	served  bool
	written bytes.Buffer
	short   int // if > 0, writes accept at most this many bytes
}

func (s *stepRW) Read(p []byte) (int, error) {
	if s.served || len(s.in) == 0 {
		return 0, fmt.Errorf("%w after 1s", seriallink.ErrTimeout)
	}
	s.served = true
	return copy(p, s.in), nil
}

func (s *stepRW) Write(p []byte) (int, error) {
	if s.short > 0 && len(p) > s.short {
		p = p[:s.short]
	}
	return s.written.Write(p)
}

func TestRelayDispatcherAccountsInbound(t *testing.T) {
	d := daemon.NewRelayDispatcher()
	acc := daemon.NewStatusAccumulator()
	ws := &daemon.WriteState{}

	rw := &stepRW{in: []byte("line one\nline two\n")}
	require.NoError(t, d.ProcessOne(rw, ws, acc))
	require.Equal(t, uint64(18), acc.Get(daemon.StatBytesIn))
	require.Equal(t, uint64(2), acc.Get(daemon.StatMessages))

	// Idle step: timeout is not an error.
	require.NoError(t, d.ProcessOne(rw, ws, acc))
	require.Equal(t, uint64(1), acc.Get(daemon.StatIdle))
}

func TestRelayDispatcherFlushesWriteState(t *testing.T) {
	d := daemon.NewRelayDispatcher()
	acc := daemon.NewStatusAccumulator()
	ws := &daemon.WriteState{}
	ws.Queue([]byte("outbound"))

	rw := &stepRW{short: 3}
	require.NoError(t, d.ProcessOne(rw, ws, acc))
	require.Equal(t, "out", rw.written.String(), "short write leaves a remainder")
	require.Equal(t, []byte("bound"), ws.Remaining())

	rw.short = 0
	require.NoError(t, d.ProcessOne(rw, ws, acc))
	require.Equal(t, "outbound", rw.written.String())
	require.Empty(t, ws.Remaining())
	require.Equal(t, uint64(8), acc.Get(daemon.StatBytesOut))
}

func TestWriteStateQueuePreservesOrder(t *testing.T) {
	ws := &daemon.WriteState{}
	ws.Queue([]byte("abc"))
	ws.Advance(1)
	ws.Queue([]byte("def"))
	require.Equal(t, []byte("bcdef"), ws.Remaining())
	ws.Advance(5)
	require.Empty(t, ws.Remaining())
}

func TestStatusAccumulator(t *testing.T) {
	acc := daemon.NewStatusAccumulator()
	require.Nil(t, acc.Snapshot(), "idle accumulator snapshots nil")
	require.Zero(t, acc.Get("anything"))

	acc.Add("messages", 1)
	acc.Add("messages", 2)
	acc.Add("bytes_in", 10)
	require.Equal(t, uint64(3), acc.Get("messages"))
	require.Equal(t, map[string]uint64{"messages": 3, "bytes_in": 10}, acc.Snapshot())
}
