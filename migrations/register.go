package migrations

import (
	"io/fs"
	"sync"
)

// Source is a labelled filesystem of dialect aware migrations.
type Source struct {
	Label string
	FS    fs.FS
}

var (
	mu      sync.RWMutex
	sources []Source
)

// Register records the activity log migrations shipped by a package. Hosts
// that add their own tables (for example a richer users table) register them
// too, and the console applies every source in registration order.
func Register(label string, fsys fs.FS) {
	if fsys == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for _, existing := range sources {
		if existing.Label == label {
			return
		}
	}
	sources = append(sources, Source{Label: label, FS: fsys})
}

// Sources returns a copy of all registered migration sources.
func Sources() []Source {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}
