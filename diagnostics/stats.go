package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// KindStats holds event counts for one handler kind.
type KindStats struct {
	Handled  uint64
	Released uint64
	Skipped  uint64
}

// Live returns the number of allocations not yet freed.
func (k KindStats) Live() uint64 {
	if k.Released > k.Handled {
		return 0
	}
	return k.Handled - k.Released
}

// Stats counts lifecycle events per kind. It is safe for concurrent use, so
// it can be read from a goroutine other than the render goroutine.
type Stats struct {
	mu    sync.Mutex
	kinds map[string]*KindStats
}

// NewStats creates an empty statistics observer.
func NewStats() *Stats {
	return &Stats{kinds: make(map[string]*KindStats)}
}

// Handling implements Observer.
func (s *Stats) Handling(kind string, _ any) {
	s.update(kind, func(k *KindStats) { k.Handled++ })
}

// Releasing implements Observer.
func (s *Stats) Releasing(kind string, _ any) {
	s.update(kind, func(k *KindStats) { k.Released++ })
}

// Skipped implements Observer.
func (s *Stats) Skipped(kind string, _ any, _ string) {
	s.update(kind, func(k *KindStats) { k.Skipped++ })
}

func (s *Stats) update(kind string, fn func(*KindStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.kinds[kind]
	if !ok {
		k = &KindStats{}
		s.kinds[kind] = k
	}
	fn(k)
}

// Snapshot returns a copy of the current counts.
func (s *Stats) Snapshot() map[string]KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]KindStats, len(s.kinds))
	for kind, k := range s.kinds {
		out[kind] = *k
	}
	return out
}

// Kind returns the counts for one kind.
func (s *Stats) Kind(kind string) KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.kinds[kind]; ok {
		return *k
	}
	return KindStats{}
}

// String returns the counts sorted by kind, one kind per line.
func (s *Stats) String() string {
	snap := s.Snapshot()
	kinds := make([]string, 0, len(snap))
	for kind := range snap {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var b strings.Builder
	for _, kind := range kinds {
		k := snap[kind]
		fmt.Fprintf(&b, "%-16s handled=%d released=%d live=%d skipped=%d\n",
			kind, k.Handled, k.Released, k.Live(), k.Skipped)
	}
	return b.String()
}
