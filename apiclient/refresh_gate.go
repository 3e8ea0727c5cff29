package apiclient

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// refreshResult settles a pending request: a new access token or the refresh error
type refreshResult struct {
	token string
	err   error
}

// pendingRequest is a caller parked while another caller refreshes
type pendingRequest struct {
	id   string
	done chan refreshResult // buffered, settled exactly once
}

// refreshGate serialises token refreshes. The first caller to acquire it
// performs the refresh; later callers are queued until it settles.
type refreshGate struct {
	lock       sync.Mutex
	inProgress bool
	queue      []*pendingRequest
	logger     zerolog.Logger
}

func newRefreshGate(logger zerolog.Logger) *refreshGate {
	return &refreshGate{logger: logger}
}

// acquireOrEnqueue either makes the caller the refresher (ok=true) or queues
// it and returns the entry to wait on.
func (g *refreshGate) acquireOrEnqueue() (pending *pendingRequest, ok bool) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if !g.inProgress {
		g.inProgress = true
		return nil, true
	}
	pending = &pendingRequest{
		id:   uuid.NewString(),
		done: make(chan refreshResult, 1),
	}
	g.queue = append(g.queue, pending)
	return pending, false
}

// settle drains the queue in arrival order; the refresh stays in progress
func (g *refreshGate) settle(res refreshResult) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.drainLocked(res)
}

// release drains anything still queued and ends the refresh
func (g *refreshGate) release(res refreshResult) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	n := g.drainLocked(res)
	g.inProgress = false
	return n
}

func (g *refreshGate) drainLocked(res refreshResult) int {
	for i, p := range g.queue {
		p.done <- res
		g.logger.Debug().Str("pending_id", p.id).Int("position", i).Bool("rejected", res.err != nil).Msg("settled queued request")
	}
	n := len(g.queue)
	g.queue = nil
	return n
}

func (g *refreshGate) pending() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return len(g.queue)
}

func (g *refreshGate) refreshing() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.inProgress
}
