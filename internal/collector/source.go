// Package collector defines the Source interface, its implementations, and
// the Collector that turns one round of readings into a SystemSnapshot.
package collector

import "context"

// Source is one host metric provider. Each source gathers a single kind of
// reading and returns its own result type (CPUResult, MemoryResult, ...).
type Source interface {
	// Name returns the unique identifier for this source.
	Name() string

	// Collect gathers the reading. The context carries the per-source deadline.
	Collect(ctx context.Context) (interface{}, error)

	// IsAvailable reports whether this source can run on the current host.
	// Sources that return false are not registered.
	IsAvailable() bool
}

// Source names, also used as keys when assembling a snapshot.
const (
	SourceCPU         = "cpu"
	SourceMemory      = "memory"
	SourceGPU         = "gpu"
	SourceTemperature = "temperature"
)
