package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"linecast/internal/types"
)

// SimulationRepository stores saved simulations in the simulations table.
type SimulationRepository struct {
	db DBTX
}

// NewSimulationRepository creates a repository backed by db.
func NewSimulationRepository(db DBTX) *SimulationRepository {
	return &SimulationRepository{db: db}
}

const simulationColumns = `id, label, friends_count, weekly_frequency, monthly_messages,
	plan_id, monthly_cost, can_send, suggested_plan_id, created_at`

func scanSimulation(row pgx.Row) (*types.Simulation, error) {
	var s types.Simulation
	err := row.Scan(
		&s.ID,
		&s.Label,
		&s.FriendsCount,
		&s.WeeklyFrequency,
		&s.MonthlyMessages,
		&s.PlanID,
		&s.MonthlyCost,
		&s.CanSend,
		&s.SuggestedPlanID,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

// Create inserts sim. ID and CreatedAt must already be set.
func (r *SimulationRepository) Create(ctx context.Context, sim *types.Simulation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO simulations (`+simulationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sim.ID,
		sim.Label,
		sim.FriendsCount,
		sim.WeeklyFrequency,
		sim.MonthlyMessages,
		sim.PlanID,
		sim.MonthlyCost,
		sim.CanSend,
		sim.SuggestedPlanID,
		sim.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save simulation", err)
	}
	return nil
}

// GetByID returns the simulation with id, or not_found_simulation.
func (r *SimulationRepository) GetByID(ctx context.Context, id string) (*types.Simulation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE id = $1`,
		id,
	)

	sim, err := scanSimulation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSimulation, "simulation not found", nil,
				map[string]any{"id": id})
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve simulation", err)
	}
	return sim, nil
}

// ListRecent returns up to limit simulations, newest first.
func (r *SimulationRepository) ListRecent(ctx context.Context, limit int) ([]*types.Simulation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+simulationColumns+` FROM simulations
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list simulations", err)
	}
	defer rows.Close()

	out := make([]*types.Simulation, 0, limit)
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan simulation", err)
		}
		out = append(out, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list simulations", err)
	}
	return out, nil
}
