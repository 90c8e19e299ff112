package types

import (
	"context"
	"time"
)

// SimulationRepository persists saved cost simulations.
type SimulationRepository interface {
	Create(ctx context.Context, sim *Simulation) error
	GetByID(ctx context.Context, id string) (*Simulation, error)
	ListRecent(ctx context.Context, limit int) ([]*Simulation, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
