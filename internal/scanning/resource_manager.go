package scanning

import (
	"context"
	"sync"
	"time"

	"github.com/anstrom/netdiag/internal/errors"
)

// maxScanDuration is how long a slot may be held before the manager
// reports itself unhealthy. A port scan of all 65535 ports at the default
// concurrency and timeout finishes well within it.
const maxScanDuration = 30 * time.Minute

// ResourceManager bounds how many scans run at once across callers, so
// that concurrent API requests cannot multiply the per-scan worker count
// past what the host can hold open.
type ResourceManager interface {
	// Acquire blocks until a slot is free for scanID or ctx ends.
	Acquire(ctx context.Context, scanID string) error

	// Release frees the slot held by scanID.
	Release(scanID string)

	// GetActiveScans returns the number of held slots.
	GetActiveScans() int

	// GetAvailableSlots returns the number of free slots.
	GetAvailableSlots() int

	// IsHealthy reports whether the manager is open and no slot looks stuck.
	IsHealthy() bool

	// GetStats returns a snapshot of slot usage.
	GetStats() Stats

	// Close releases every slot and rejects further Acquire calls.
	Close() error
}

var _ ResourceManager = (*FixedResourceManager)(nil)

// FixedResourceManager implements ResourceManager with a fixed number of slots.
type FixedResourceManager struct {
	capacity    int
	semaphore   chan struct{}
	activeScans map[string]time.Time
	mutex       sync.RWMutex
	closed      bool
	now         func() time.Time
}

// NewFixedResourceManager creates a manager with capacity slots (at least one).
func NewFixedResourceManager(capacity int) *FixedResourceManager {
	if capacity <= 0 {
		capacity = 1
	}

	return &FixedResourceManager{
		capacity:    capacity,
		semaphore:   make(chan struct{}, capacity),
		activeScans: make(map[string]time.Time),
		now:         time.Now,
	}
}

// Acquire implements ResourceManager.
func (rm *FixedResourceManager) Acquire(ctx context.Context, scanID string) error {
	rm.mutex.RLock()
	closed := rm.closed
	rm.mutex.RUnlock()
	if closed {
		return errors.NewScanError(errors.CodeServiceUnavailable, "scan limiter is closed")
	}

	select {
	case rm.semaphore <- struct{}{}:
		rm.mutex.Lock()
		rm.activeScans[scanID] = rm.now()
		rm.mutex.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release implements ResourceManager. Unknown IDs are ignored.
func (rm *FixedResourceManager) Release(scanID string) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	if _, exists := rm.activeScans[scanID]; !exists {
		return
	}
	delete(rm.activeScans, scanID)

	select {
	case <-rm.semaphore:
	default:
	}
}

// GetActiveScans implements ResourceManager.
func (rm *FixedResourceManager) GetActiveScans() int {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	return len(rm.activeScans)
}

// GetAvailableSlots implements ResourceManager.
func (rm *FixedResourceManager) GetAvailableSlots() int {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	return rm.capacity - len(rm.activeScans)
}

// IsHealthy implements ResourceManager.
func (rm *FixedResourceManager) IsHealthy() bool {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	return rm.healthyLocked()
}

func (rm *FixedResourceManager) healthyLocked() bool {
	if rm.closed {
		return false
	}

	now := rm.now()
	for _, started := range rm.activeScans {
		if now.Sub(started) > maxScanDuration {
			return false
		}
	}
	return true
}

// Close implements ResourceManager.
func (rm *FixedResourceManager) Close() error {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	if rm.closed {
		return nil
	}

	rm.closed = true
	rm.activeScans = make(map[string]time.Time)

	for {
		select {
		case <-rm.semaphore:
		default:
			return nil
		}
	}
}

// Stats is a point-in-time view of a FixedResourceManager.
type Stats struct {
	Capacity  int  `json:"capacity"`
	Active    int  `json:"active_scans"`
	Available int  `json:"available_slots"`
	Healthy   bool `json:"is_healthy"`
	Closed    bool `json:"closed"`
	// Longest is how long the oldest held slot has been held, in seconds.
	Longest float64 `json:"longest_scan_seconds,omitempty"`
}

// GetStats returns a snapshot for health endpoints.
func (rm *FixedResourceManager) GetStats() Stats {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	stats := Stats{
		Capacity:  rm.capacity,
		Active:    len(rm.activeScans),
		Available: rm.capacity - len(rm.activeScans),
		Healthy:   rm.healthyLocked(),
		Closed:    rm.closed,
	}
	now := rm.now()
	for _, started := range rm.activeScans {
		stats.Longest = max(stats.Longest, now.Sub(started).Seconds())
	}
	return stats
}
