package testutils

import (
	"context"
	"sync"
	"sync/atomic"
)

// ScriptedLink is an in-memory serial link. Scripted chunks are served
// one per read; with the script drained, reads park until the caller's
// context expires, like an idle radio behind a bounded transport.
type ScriptedLink struct {
	mu      sync.Mutex
	script  [][]byte
	written []byte
	closed  atomic.Bool
}

func NewScriptedLink(chunks ...[]byte) *ScriptedLink {
	return &ScriptedLink{script: chunks}
}

func (l *ScriptedLink) ReadContext(ctx context.Context, p []byte) (int, error) {
	l.mu.Lock()
	if len(l.script) > 0 {
		n := copy(p, l.script[0])
		l.script = l.script[1:]
		l.mu.Unlock()
		return n, nil
	}
	l.mu.Unlock()
	<-ctx.Done()
	return 0, ctx.Err()
}

func (l *ScriptedLink) WriteContext(ctx context.Context, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written = append(l.written, p...)
	return len(p), nil
}

func (l *ScriptedLink) Close() error {
	l.closed.Store(true)
	return nil
}

// Feed appends chunks to the script while the link is live.
func (l *ScriptedLink) Feed(chunks ...[]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.script = append(l.script, chunks...)
}

// Written returns everything the code under test sent down the link.
func (l *ScriptedLink) Written() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.written)
}

func (l *ScriptedLink) Closed() bool {
	return l.closed.Load()
}

// LinkScript hands out one pre-scripted link per open and records them
// all, so tests can assert on every link a sequence of operations
// touched.
type LinkScript struct {
	mu     sync.Mutex
	Script [][]byte
	Err    error // returned instead of a link when set
	Links  []*ScriptedLink
	Opens  int
}

// Open returns the next scripted link. The signature is deliberately
// device-only; callers adapt it to whatever opener seam they fake.
func (s *LinkScript) Open(device string) (*ScriptedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Opens++
	if s.Err != nil {
		return nil, s.Err
	}
	l := &ScriptedLink{script: s.Script}
	s.Links = append(s.Links, l)
	return l, nil
}
