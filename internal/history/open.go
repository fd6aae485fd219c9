package history

import "fmt"

// Open returns the store for the named backend ("sqlite", "bolt" or "memory").
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "sqlite":
		return NewSQLiteStore(path)
	case "bolt":
		return NewBoltStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
