package scanning

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anstrom/netdiag/internal/errors"
)

func TestFixedResourceManager_Acquire(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		rm := NewFixedResourceManager(2)
		ctx := context.Background()

		if err := rm.Acquire(ctx, "scan-1"); err != nil {
			t.Fatalf("Expected successful acquisition, got error: %v", err)
		}
		if got := rm.GetActiveScans(); got != 1 {
			t.Errorf("Expected 1 active scan, got %d", got)
		}
		if got := rm.GetAvailableSlots(); got != 1 {
			t.Errorf("Expected 1 available slot, got %d", got)
		}

		rm.Release("scan-1")
		if got := rm.GetAvailableSlots(); got != 2 {
			t.Errorf("Expected 2 available slots after release, got %d", got)
		}
	})

	t.Run("blocks when full until context ends", func(t *testing.T) {
		rm := NewFixedResourceManager(1)
		if err := rm.Acquire(context.Background(), "holder"); err != nil {
			t.Fatalf("Expected successful acquisition, got error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := rm.Acquire(ctx, "waiter"); err != context.DeadlineExceeded {
			t.Errorf("Expected deadline exceeded, got %v", err)
		}
		rm.Release("holder")
	})

	t.Run("waiter proceeds after release", func(t *testing.T) {
		rm := NewFixedResourceManager(1)
		ctx := context.Background()
		if err := rm.Acquire(ctx, "first"); err != nil {
			t.Fatalf("Expected successful acquisition, got error: %v", err)
		}

		acquired := make(chan error, 1)
		go func() {
			acquired <- rm.Acquire(ctx, "second")
		}()

		select {
		case <-acquired:
			t.Fatal("Expected acquisition to block while the slot is held")
		case <-time.After(50 * time.Millisecond):
		}

		rm.Release("first")
		select {
		case err := <-acquired:
			if err != nil {
				t.Errorf("Expected second acquisition to succeed, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Second acquisition never completed")
		}
		rm.Release("second")
	})

	t.Run("zero capacity is one slot", func(t *testing.T) {
		rm := NewFixedResourceManager(0)
		if got := rm.GetAvailableSlots(); got != 1 {
			t.Errorf("Expected 1 slot, got %d", got)
		}
	})
}

func TestFixedResourceManager_ReleaseUnknown(t *testing.T) {
	rm := NewFixedResourceManager(2)
	rm.Release("non-existent-scan")

	if got := rm.GetActiveScans(); got != 0 {
		t.Errorf("Expected 0 active scans, got %d", got)
	}
	if got := rm.GetAvailableSlots(); got != 2 {
		t.Errorf("Expected 2 available slots, got %d", got)
	}
}

func TestFixedResourceManager_ConcurrentAccess(t *testing.T) {
	rm := NewFixedResourceManager(4)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			scanID := fmt.Sprintf("scan-%d", id)
			if err := rm.Acquire(ctx, scanID); err != nil {
				errs <- err
				return
			}
			if active := rm.GetActiveScans(); active > 4 {
				errs <- fmt.Errorf("capacity exceeded: %d active", active)
			}
			time.Sleep(time.Millisecond)
			rm.Release(scanID)
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent operation failed: %v", err)
	}
	if got := rm.GetActiveScans(); got != 0 {
		t.Errorf("Expected 0 active scans after completion, got %d", got)
	}
}

func TestFixedResourceManager_IsHealthy(t *testing.T) {
	t.Run("healthy with recent scans", func(t *testing.T) {
		rm := NewFixedResourceManager(2)
		if err := rm.Acquire(context.Background(), "recent"); err != nil {
			t.Fatal(err)
		}
		if !rm.IsHealthy() {
			t.Error("Expected healthy state with a recent scan")
		}
	})

	t.Run("unhealthy with a stuck slot", func(t *testing.T) {
		rm := NewFixedResourceManager(2)
		start := time.Now()
		rm.now = func() time.Time { return start }
		if err := rm.Acquire(context.Background(), "stuck"); err != nil {
			t.Fatal(err)
		}

		rm.now = func() time.Time { return start.Add(maxScanDuration + time.Minute) }
		if rm.IsHealthy() {
			t.Error("Expected unhealthy state with a slot held past the limit")
		}
		stats := rm.GetStats()
		if stats.Healthy {
			t.Error("Expected stats to report unhealthy")
		}
		if stats.Longest < maxScanDuration.Seconds() {
			t.Errorf("Expected the stuck slot to be reported, got %v seconds", stats.Longest)
		}
	})
}

func TestFixedResourceManager_Close(t *testing.T) {
	rm := NewFixedResourceManager(2)
	ctx := context.Background()
	if err := rm.Acquire(ctx, "scan-1"); err != nil {
		t.Fatal(err)
	}

	if err := rm.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rm.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if rm.IsHealthy() {
		t.Error("Expected closed manager to be unhealthy")
	}
	err := rm.Acquire(ctx, "scan-2")
	if !errors.IsCode(err, errors.CodeServiceUnavailable) {
		t.Errorf("Expected SERVICE_UNAVAILABLE from a closed manager, got %v", err)
	}

	stats := rm.GetStats()
	if !stats.Closed || stats.Active != 0 || stats.Available != 2 {
		t.Errorf("Unexpected stats after close: %+v", stats)
	}
}
