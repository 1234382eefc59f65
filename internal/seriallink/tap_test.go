package seriallink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestTapIsTransparent(t *testing.T) {
	port := &fakePort{script: []byte("10\t3\t1.8.88.0\r\n")}
	tap := NewTap(port, quietLogger(), 0)
	b := NewBlocking(tap, DefaultIOTimeout)

	_, err := b.Write([]byte("AT I 3\r"))
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := b.Read(buf)
	require.NoError(t, err)

	// Observed bytes are exactly the wire bytes.
	require.Equal(t, "10\t3\t1.8.88.0\r\n", string(buf[:n]))
	require.Equal(t, "AT I 3\r", string(port.written))
}

func TestTapLogsBothDirections(t *testing.T) {
	var out bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&out)
	logger.SetLevel(logrus.DebugLevel)

	port := &fakePort{script: []byte("OK\r\n")}
	tap := NewTap(port, logger, 0)
	b := NewBlocking(tap, DefaultIOTimeout)

	_, _ = b.Write([]byte("AT\r"))
	_, _ = b.Read(make([]byte, 8))

	log := out.String()
	require.Contains(t, log, WriteTag)
	require.Contains(t, log, ReadTag)
}

func TestTapRetainsRecentTraffic(t *testing.T) {
	port := &fakePort{script: []byte("response")}
	tap := NewTap(port, quietLogger(), 8)
	b := NewBlocking(tap, DefaultIOTimeout)

	_, _ = b.Write([]byte("cmd1"))
	_, _ = b.Read(make([]byte, 16))

	// Ring holds 8 bytes; "cmd1"+"response" is 12, so the oldest 4 are
	// gone and the newest 8 remain.
	require.Equal(t, "response", string(tap.Recent()))
}

func TestTapRetainOversizedChunk(t *testing.T) {
	port := &fakePort{}
	tap := NewTap(port, quietLogger(), 4)
	b := NewBlocking(tap, DefaultIOTimeout)

	_, _ = b.Write([]byte(strings.Repeat("ab", 8)))
	require.Equal(t, "abab", string(tap.Recent()))
}
