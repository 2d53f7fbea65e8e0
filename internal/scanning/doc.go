// Package scanning implements the TCP connect port scanner.
//
// # Overview
//
// A Scanner probes a list of ports on one host by opening a TCP connection
// to each of them. A port that accepts the connection is open; any other
// outcome counts as closed. Probes run on a bounded worker pool and the
// results come back in the order the ports were submitted, regardless of
// which probe finished first.
//
// # Usage
//
//	scanner := scanning.NewScanner(scanning.Options{
//		Concurrency: 50,
//		Timeout:     500 * time.Millisecond,
//	})
//
//	set, err := portset.Parse("22,80,443,8000-8100")
//	if err != nil {
//		return err
//	}
//	results, err := scanner.ScanSet(ctx, "192.0.2.10", set)
//
// ScanEach additionally calls a function with every result as soon as it
// and all earlier results are known, which is how streaming callers emit
// progress.
//
// # Errors
//
// Scan errors are *errors.ScanError values. The scan stops with
// RESOURCE_EXHAUSTED when the local system runs out of sockets or file
// descriptors, and with CANCELED when the context ends. Ports still queued
// at cancellation are never dialed.
//
// # Resource management
//
// A ResourceManager bounds the number of scans that run at the same time
// across the process. The HTTP API shares one FixedResourceManager between
// all requests and reports its state from the health endpoint.
package scanning
