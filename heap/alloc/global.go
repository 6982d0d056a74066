package alloc

import "sync"

// The process-wide arena. It is created once and never torn down.
var global struct {
	mu    sync.Mutex
	arena *Arena
}

// Install creates the process-wide arena backed by src. Only the first call
// succeeds; later calls return ErrAlreadyInstalled and the existing arena.
func Install(src Source, config *Config) (*Arena, error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.arena != nil {
		return global.arena, ErrAlreadyInstalled
	}
	global.arena = New(src, config)
	return global.arena, nil
}

// Default returns the process-wide arena, or nil before Install.
func Default() *Arena {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.arena
}
