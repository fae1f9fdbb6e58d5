package syncclient

import "sync"

// versionGate decides what to do with an incoming agenda payload based on
// its monotonic version. Full snapshots always apply; patches apply only
// when they move the version forward, and a gap of more than one means an
// intermediate broadcast was missed, so the caller should re-request a
// full snapshot.
type versionGate struct {
	mu   sync.Mutex
	last int64
	seen bool
}

func (g *versionGate) observe(version int64, fullSnapshot bool) (apply, resync bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if fullSnapshot || !g.seen {
		g.seen = true
		g.last = version
		return true, false
	}

	switch {
	case version <= g.last:
		return false, false
	case version > g.last+1:
		g.last = version
		return true, true
	default:
		g.last = version
		return true, false
	}
}

// reset forgets version history, e.g. across a reconnect.
func (g *versionGate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = false
	g.last = 0
}
