package tokendir

import (
	"context"
	"sync"
	"time"
)

// defaultStuckTimeout bounds how long a refresh can hold the guard. A
// crashed or hung refresh would otherwise block every later one.
const defaultStuckTimeout = 45 * time.Second

// refreshGuard collapses concurrent refresh attempts into one in-flight
// refresh. Losers can await the winner's release and then read the
// result it cached, so one upstream fetch serves everyone.
type refreshGuard struct {
	mu         sync.Mutex
	held       bool
	since      time.Time
	done       chan struct{}
	stuckAfter time.Duration
	now        func() time.Time
}

func newRefreshGuard(stuckAfter time.Duration) *refreshGuard {
	if stuckAfter <= 0 {
		stuckAfter = defaultStuckTimeout
	}
	return &refreshGuard{
		stuckAfter: stuckAfter,
		now:        time.Now,
	}
}

// tryAcquire reports whether the caller won the refresh slot. A holder
// stuck past stuckAfter is evicted so refreshes cannot wedge forever.
func (g *refreshGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.held {
		if now.Sub(g.since) < g.stuckAfter {
			return false
		}
		// Evicting a stuck holder; wake anyone awaiting it.
		if g.done != nil {
			close(g.done)
		}
	}
	g.held = true
	g.since = now
	g.done = make(chan struct{})
	return true
}

func (g *refreshGuard) release() {
	g.mu.Lock()
	g.held = false
	if g.done != nil {
		close(g.done)
		g.done = nil
	}
	g.mu.Unlock()
}

// awaitRelease blocks until the in-flight refresh finishes, the context
// ends, or the stuck window elapses. Callers re-read the cache after.
func (g *refreshGuard) awaitRelease(ctx context.Context) {
	g.mu.Lock()
	held, done := g.held, g.done
	g.mu.Unlock()
	if !held || done == nil {
		return
	}

	timer := time.NewTimer(g.stuckAfter)
	defer timer.Stop()
	select {
	case <-done:
	case <-ctx.Done():
	case <-timer.C:
	}
}
