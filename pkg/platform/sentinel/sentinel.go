package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services and handlers can translate them without depending on
// store internals.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: the referenced note does not exist, or is inactive where an
//   active one was required
// - ErrPersistence: a write affected an unexpected number of rows (lost race,
//   concurrent delete, constraint violation); never silently swallowed
var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)
