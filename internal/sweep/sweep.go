package sweep

import (
	"context"
	"sync"

	syncutil "github.com/projectdiscovery/utils/sync"

	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

// Backfiller is implemented by probe results that record the destination
// they answer for.
type Backfiller interface {
	Destination() string
	SetDestination(dest string)
}

// ProbeFunc probes one target. It must return a non-nil result whenever
// it returns a nil error.
type ProbeFunc[R any] func(ctx context.Context, target string) (R, error)

// Options controls ExpandAndProbe.
type Options[R any] struct {
	// Name labels the sweep in logs and metrics, for example "ping".
	Name string
	// HardCap is the largest usable address count accepted. Zero means
	// DefaultPingCap.
	HardCap int
	// Concurrency above one probes that many targets at a time. Results
	// and callbacks stay in target order.
	Concurrency int
	// Callback, when set, receives each result in target order as soon as
	// it and every result before it are available.
	Callback func(R)
	// Metrics receives sweep counters.
	Metrics metrics.Recorder
}

// ExpandAndProbe expands destSpec with Expand and probes every target,
// sequentially unless opts.Concurrency is above one. Results without a
// destination get destSpec. The first probe error aborts the sweep: no
// further probes start and the error is returned.
func ExpandAndProbe[R Backfiller](ctx context.Context, destSpec string, probe ProbeFunc[R], opts Options[R]) ([]R, error) {
	rec := metrics.OrNop(opts.Metrics)
	if opts.HardCap == 0 {
		opts.HardCap = DefaultPingCap
	}

	targets, err := Expand(destSpec, opts.HardCap)
	if err != nil {
		rec.IncrementSweepRejected(opts.Name)
		logging.ErrorSweep("Sweep rejected", destSpec, err, "probe", opts.Name)
		return nil, err
	}
	rec.IncrementSweepTargets(opts.Name, len(targets))

	emit := func(r R) R {
		if r.Destination() == "" {
			r.SetDestination(destSpec)
		}
		if opts.Callback != nil {
			opts.Callback(r)
		}
		return r
	}

	var results []R
	if opts.Concurrency > 1 && len(targets) > 1 {
		results, err = probeConcurrent(ctx, targets, probe, opts.Concurrency, emit)
	} else {
		results, err = probeSequential(ctx, targets, probe, emit)
	}
	if err != nil {
		logging.ErrorSweep("Sweep failed", destSpec, err, "probe", opts.Name)
		return nil, err
	}

	logging.InfoSweep("Sweep completed", destSpec, "probe", opts.Name, "targets", len(targets))
	return results, nil
}

func probeSequential[R Backfiller](ctx context.Context, targets []string, probe ProbeFunc[R], emit func(R) R) ([]R, error) {
	results := make([]R, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := probe(ctx, target)
		if err != nil {
			return nil, err
		}
		results = append(results, emit(r))
	}
	return results, nil
}

// probeConcurrent runs up to size probes at once. Finished results are
// buffered until every earlier target has finished so that emit sees them
// in target order.
func probeConcurrent[R Backfiller](ctx context.Context, targets []string, probe ProbeFunc[R], size int, emit func(R) R) ([]R, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	awg, err := syncutil.New(syncutil.WithSize(size))
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		done     = make([]bool, len(targets))
		slots    = make([]R, len(targets))
		results  = make([]R, 0, len(targets))
		next     int
		firstErr error
	)

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}

		awg.Add()
		go func(i int, target string) {
			defer awg.Done()

			r, err := probe(ctx, target)

			mu.Lock()
			defer mu.Unlock()

			if firstErr != nil {
				return
			}
			if err != nil {
				firstErr = err
				cancel()
				return
			}

			slots[i], done[i] = r, true
			for next < len(targets) && done[next] {
				results = append(results, emit(slots[next]))
				next++
			}
		}(i, target)
	}
	awg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if next < len(targets) {
		return nil, context.Cause(ctx)
	}
	return results, nil
}
