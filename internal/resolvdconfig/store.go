package resolvdconfig

import "sync"

// Store holds the live configuration snapshot behind one RWMutex (spec.md
// §5's single global-mutable-state lock model). Get returns a deep copy so
// callers can read without holding the lock; Replace validates and swaps
// the whole snapshot atomically, then persists it to disk if a path was
// configured.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// NewStore wraps cfg, optionally persisting future Replace calls to path.
// An empty path disables persistence (Replace only updates the in-memory
// snapshot).
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Get returns a deep copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.cfg)
}

// Replace validates cfg, swaps it in, and — if this Store was constructed
// with a path — writes it back to disk.
func (s *Store) Replace(cfg Config) error {
	if err := normalize(&cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	return Save(path, cfg)
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Upstream = append([]Upstream(nil), cfg.Upstream...)
	out.Filter = append([]Filter(nil), cfg.Filter...)
	out.Schedule = append([]Task(nil), cfg.Schedule...)
	return out
}
