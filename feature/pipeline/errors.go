package pipeline

import "errors"

var (
	// ErrSourceUnavailable marks a transient source failure. The run fails
	// but is safe to retry wholesale, reconciliation being idempotent.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRowSign marks a row whose content could not be hashed. The row is
	// skipped and counted as failed; the batch continues.
	ErrRowSign = errors.New("row signature failed")

	// ErrStoreWrite marks a cache write failure. A single row's failure is
	// absorbed into the batch counters; a whole batch failing escalates.
	ErrStoreWrite = errors.New("cache write failed")

	// ErrRunNotFound is returned by status lookups for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
)
