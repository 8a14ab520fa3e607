package sequence

import "context"

// Repository allocates monotonic sequence numbers per (department code, year)
type Repository interface {
	// AllocateNext atomically increments and returns the counter for the
	// key, creating it at zero before the first increment. Under N
	// concurrent callers the N results are pairwise distinct and form a
	// contiguous run. Correctness is enforced by the backing store, so the
	// guarantee holds across process instances sharing it.
	AllocateNext(ctx context.Context, departmentCode string, year int) (int, error)

	// Get returns the counter for the key, or a not found error if no
	// allocation has happened yet
	Get(ctx context.Context, departmentCode string, year int) (*Counter, error)
}
