// Package budget tracks device memory reserved by backend objects and
// enforces an upper limit.
package budget

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/g3d/backend"
)

// Budget errors.
var (
	// ErrBudgetExceeded is returned when a reservation would exceed the
	// budget. It wraps backend.ErrOutOfMemory.
	ErrBudgetExceeded = fmt.Errorf("budget: memory budget exceeded: %w", backend.ErrOutOfMemory)

	// ErrDuplicateKey is returned when reserving under a key that already
	// holds a reservation.
	ErrDuplicateKey = errors.New("budget: key already reserved")
)

// Stats contains memory usage statistics.
type Stats struct {
	// TotalBytes is the budget in bytes, 0 when unlimited.
	TotalBytes uint64

	// UsedBytes is the currently reserved memory in bytes.
	UsedBytes uint64

	// PeakBytes is the highest UsedBytes seen.
	PeakBytes uint64

	// Reservations is the number of live reservations.
	Reservations int

	// Rejected is the number of reservations refused for lack of room.
	Rejected uint64
}

// AvailableBytes returns the remaining budget, or 0 when unlimited.
func (s Stats) AvailableBytes() uint64 {
	if s.TotalBytes == 0 || s.UsedBytes >= s.TotalBytes {
		return 0
	}
	return s.TotalBytes - s.UsedBytes
}

// Utilization returns the fraction of the budget used (0.0 to 1.0), or 0
// when unlimited.
func (s Stats) Utilization() float64 {
	if s.TotalBytes == 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(s.TotalBytes)
}

// String returns a human-readable string of memory stats.
func (s Stats) String() string {
	if s.TotalBytes == 0 {
		return fmt.Sprintf("Memory[%d KB used, unlimited, %d objects, peak %d KB]",
			s.UsedBytes/1024, s.Reservations, s.PeakBytes/1024)
	}
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d KB, %d objects, %d rejected]",
		s.Utilization()*100,
		s.UsedBytes/1024,
		s.TotalBytes/1024,
		s.Reservations,
		s.Rejected)
}

// Budget accounts reservations by key.
//
// Budget is safe for concurrent use.
type Budget struct {
	mu sync.Mutex

	totalBytes uint64
	usedBytes  uint64
	peakBytes  uint64
	rejected   uint64

	reserved map[string]uint64
}

// New creates a budget of maxBytes. Zero means unlimited; reservations
// are still accounted.
func New(maxBytes uint64) *Budget {
	return &Budget{
		totalBytes: maxBytes,
		reserved:   make(map[string]uint64),
	}
}

// Reserve accounts n bytes under key.
func (b *Budget) Reserve(key string, n uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.reserved[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	if b.totalBytes > 0 && b.usedBytes+n > b.totalBytes {
		b.rejected++
		return fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
			ErrBudgetExceeded, key, n, b.usedBytes, b.totalBytes)
	}

	b.reserved[key] = n
	b.usedBytes += n
	if b.usedBytes > b.peakBytes {
		b.peakBytes = b.usedBytes
	}
	return nil
}

// Return gives back the reservation held under key and reports its size.
// Unknown keys are ignored.
func (b *Budget) Return(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.reserved[key]
	if !ok {
		return 0
	}
	delete(b.reserved, key)
	b.usedBytes -= n
	return n
}

// Reserved returns the bytes held under key.
func (b *Budget) Reserved(key string) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.reserved[key]
	return n, ok
}

// Stats returns current memory statistics.
func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		TotalBytes:   b.totalBytes,
		UsedBytes:    b.usedBytes,
		PeakBytes:    b.peakBytes,
		Reservations: len(b.reserved),
		Rejected:     b.rejected,
	}
}

// Key formats a reservation key from an object kind and ID.
func Key(kind string, id uint64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
