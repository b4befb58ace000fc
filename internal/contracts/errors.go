package contracts

import "errors"

// Sentinel errors shared across repositories and evaluators.

// ErrNotFound signals that a referenced security, exchange, series or date
// has no stored data. Batch evaluations handle it by skipping the affected
// series; single-item lookups surface it to the caller.
var ErrNotFound = errors.New("not found")

// ErrInvalidInterval signals a lookback interval with a count below 1.
// Unlike ErrNotFound it aborts the whole evaluation request, since it is a
// caller configuration error rather than a data gap.
var ErrInvalidInterval = errors.New("interval count must be positive")
