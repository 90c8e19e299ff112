package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linecast/internal/core"
	"linecast/internal/pricing"
	"linecast/internal/types"
)

// CreateSimulationRequest is the body for POST /v1/simulations. When PlanID
// is empty the schedule is priced on the suggested plan.
type CreateSimulationRequest struct {
	Label           string       `json:"label" validate:"max=200"`
	FriendsCount    *int64       `json:"friendsCount" validate:"required,gte=0,lte=1000000000000"`
	WeeklyFrequency *int64       `json:"weeklyFrequency" validate:"required,gte=0,lte=1000000000000"`
	PlanID          types.PlanID `json:"planId" validate:"omitempty,plan_id"`
}

// SimulationHandler saves and lists what-if broadcast schedules.
type SimulationHandler struct {
	repo      types.SimulationRepository
	catalog   *pricing.Catalog
	advisor   *pricing.Advisor
	clock     types.Clock
	validator *core.Validator
	logger    *slog.Logger
}

// NewSimulationHandler creates a SimulationHandler. A nil clock uses the
// system clock.
func NewSimulationHandler(
	repo types.SimulationRepository,
	catalog *pricing.Catalog,
	clock types.Clock,
	v *core.Validator,
	l *slog.Logger,
) *SimulationHandler {
	if catalog == nil {
		catalog = pricing.DefaultCatalog()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if l == nil {
		l = slog.Default()
	}
	return &SimulationHandler{
		repo:      repo,
		catalog:   catalog,
		advisor:   pricing.NewAdvisor(catalog),
		clock:     clock,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts /simulations.
func (h *SimulationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

// Create handles POST /v1/simulations.
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSimulationRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	freq, err := h.advisor.Simulate(*req.FriendsCount, *req.WeeklyFrequency)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	sim := &types.Simulation{
		ID:              uuid.NewString(),
		Label:           req.Label,
		FriendsCount:    freq.FriendsCount,
		WeeklyFrequency: freq.WeeklyFrequency,
		MonthlyMessages: freq.MonthlyMessages,
		PlanID:          freq.OptimalPlan.ID,
		MonthlyCost:     freq.MonthlyCost,
		CanSend:         true,
		SuggestedPlanID: freq.OptimalPlan.ID,
		CreatedAt:       h.clock.Now(),
	}

	if req.PlanID != "" && req.PlanID != freq.OptimalPlan.ID {
		plan, err := h.catalog.Lookup(req.PlanID)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		breakdown, err := pricing.CalculateMonthlyCost(freq.MonthlyMessages, plan)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		sim.PlanID = plan.ID
		sim.MonthlyCost = breakdown.TotalCost
		sim.CanSend = breakdown.CanSend
	}

	if err := h.repo.Create(r.Context(), sim); err != nil {
		core.Error(w, r, err)
		return
	}

	types.LoggerFromContext(r.Context()).InfoContext(r.Context(), "simulation saved",
		"simulation_id", sim.ID,
		"plan_id", string(sim.PlanID),
		"monthly_messages", sim.MonthlyMessages,
	)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: sim})
}

// Get handles GET /v1/simulations/{id}.
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	sim, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: sim})
}

// List handles GET /v1/simulations?limit=, newest first.
func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := types.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationInvalidArgument,
				"limit must be a positive integer",
				err,
				map[string]any{"limit": raw},
			))
			return
		}
		limit = types.ClampLimit(n)
	}

	// One extra row tells whether another page exists.
	sims, err := h.repo.ListRecent(r.Context(), limit+1)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	hasMore := len(sims) > limit
	if hasMore {
		sims = sims[:limit]
	}

	core.JSON(w, r, http.StatusOK, types.ListResponse[*types.Simulation]{
		Data: sims,
		PageInfo: types.PageInfo{
			Limit:   limit,
			Count:   len(sims),
			HasMore: hasMore,
		},
	})
}
