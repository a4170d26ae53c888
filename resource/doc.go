// Package resource governs the resources a matching job may consume.
//
// A Controller tracks three budgets that can be shared by several
// concurrent jobs:
//
//   - Memory: bytes held by cached hash indices (fail-fast)
//   - Workers: concurrent index builds and pair matches (semaphore)
//   - IO: bytes per second read while loading descriptor sets (token bucket)
//
// Memory:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
//	if err := rc.AcquireMemory(idx.SizeBytes()); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(idx.SizeBytes())
//
// IO:
//
//	r := resource.NewRateLimitedReader(ctx, f, rc)
//
// All methods are safe for concurrent use, and a nil *Controller imposes
// no limits.
package resource
