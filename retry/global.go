package retry

import (
	"log"
	"sync"
)

var (
	globalOrch *Orchestrator
	globalOnce sync.Once
)

// Default returns the shared, lazy-initialized default orchestrator.
// It uses New() if SetDefault has not been called.
func Default() *Orchestrator {
	globalOnce.Do(func() {
		if globalOrch == nil {
			globalOrch = New()
		}
	})
	return globalOrch
}

// SetDefault configures the default orchestrator.
// It must be called before Default() is used (e.g. at startup).
// If called after initialization, it logs a warning and does nothing.
func SetDefault(o *Orchestrator) {
	if o == nil {
		return
	}

	if globalOrch != nil {
		log.Printf("retry: SetDefault called after default orchestrator already initialized; ignoring.")
		return
	}

	globalOnce.Do(func() {
		globalOrch = o
	})
}
