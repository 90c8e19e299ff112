package db

import (
	"context"
	"sort"
	"sync"

	"linecast/internal/types"
)

// MemorySimulationRepository keeps simulations in process memory. It backs
// local runs without DATABASE_URL and handler tests.
type MemorySimulationRepository struct {
	mu   sync.RWMutex
	sims map[string]types.Simulation
}

// NewMemorySimulationRepository returns an empty store.
func NewMemorySimulationRepository() *MemorySimulationRepository {
	return &MemorySimulationRepository{sims: make(map[string]types.Simulation)}
}

// Create stores a copy of sim. Saving an existing ID replaces it.
func (r *MemorySimulationRepository) Create(_ context.Context, sim *types.Simulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sims[sim.ID] = *sim
	return nil
}

// GetByID returns a copy of the stored simulation.
func (r *MemorySimulationRepository) GetByID(_ context.Context, id string) (*types.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sim, ok := r.sims[id]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSimulation, "simulation not found", nil,
			map[string]any{"id": id})
	}
	return &sim, nil
}

// ListRecent orders like the Postgres query: created_at then id, descending.
func (r *MemorySimulationRepository) ListRecent(_ context.Context, limit int) ([]*types.Simulation, error) {
	r.mu.RLock()
	all := make([]*types.Simulation, 0, len(r.sims))
	for _, s := range r.sims {
		sim := s
		all = append(all, &sim)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

var (
	_ types.SimulationRepository = (*SimulationRepository)(nil)
	_ types.SimulationRepository = (*MemorySimulationRepository)(nil)
)
