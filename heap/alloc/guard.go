package alloc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// guard is the arena's exclusive lock. It remembers the goroutine holding it
// so a nested acquisition fails fast instead of deadlocking.
type guard struct {
	mu    sync.Mutex
	held  atomic.Bool
	owner atomic.Int64 // goroutine id of the holder, valid while held
}

func (g *guard) lock() {
	id := goid.Get()
	if g.held.Load() && g.owner.Load() == id {
		panic(fmt.Errorf("%w: goroutine %d", ErrReentrant, id))
	}
	g.mu.Lock()
	g.owner.Store(id)
	g.held.Store(true)
}

func (g *guard) unlock() {
	g.held.Store(false)
	g.mu.Unlock()
}
