// Package handlers contains the HTTP handlers of the linecast API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"linecast/internal/core"
	"linecast/internal/pricing"
	"linecast/internal/types"
)

// LineUsageService reads the account's quota and current-month consumption.
// external.LineClient implements it.
type LineUsageService interface {
	GetQuota(ctx context.Context) (*types.MessageQuota, error)
	GetConsumption(ctx context.Context) (*types.MessageConsumption, error)
}

// UpstreamFailureRecorder counts failed third-party calls.
type UpstreamFailureRecorder interface {
	RecordUpstreamFailure(provider string)
}

// --- Request/Response Models ---
//
// The lte ceilings mirror pricing.MaxMonthlyMessages and pricing.MaxBudget.

// EstimateRequest is the body for POST /v1/cost/estimate.
type EstimateRequest struct {
	MessagesUsed *int64       `json:"messagesUsed" validate:"required,gte=0,lte=1000000000000"`
	PlanID       types.PlanID `json:"planId" validate:"required,plan_id"`
}

// SuggestRequest is the body for POST /v1/cost/suggest.
type SuggestRequest struct {
	MonthlyMessages *int64 `json:"monthlyMessages" validate:"required,gte=0,lte=1000000000000"`
}

// BudgetRequest is the body for POST /v1/cost/budget.
type BudgetRequest struct {
	Budget *decimal.Decimal `json:"budget" validate:"required,gte=0,lte=1000000000000000"`
	PlanID types.PlanID     `json:"planId" validate:"required,plan_id"`
}

// CompareRequest is the body for POST /v1/cost/compare.
type CompareRequest struct {
	CurrentPlanID   types.PlanID `json:"currentPlanId" validate:"required,plan_id"`
	NewPlanID       types.PlanID `json:"newPlanId" validate:"required,plan_id"`
	MonthlyMessages *int64       `json:"monthlyMessages" validate:"required,gte=0,lte=1000000000000"`
}

// SimulateRequest is the body for POST /v1/cost/simulate.
type SimulateRequest struct {
	FriendsCount    *int64 `json:"friendsCount" validate:"required,gte=0,lte=1000000000000"`
	WeeklyFrequency *int64 `json:"weeklyFrequency" validate:"required,gte=0,lte=1000000000000"`
}

// EstimateResponse is a breakdown plus the usage bar percentage.
type EstimateResponse struct {
	pricing.CostBreakdown
	UsagePercent int64 `json:"usagePercent"`
}

// UsageResponse prices what the account has actually sent this month.
type UsageResponse struct {
	Quota          types.MessageQuota `json:"quota"`
	QuotaRemaining *int64             `json:"quotaRemaining,omitempty"`
	Estimate       EstimateResponse   `json:"estimate"`
}

// --- Handler ---

// CostHandler serves the pricing calculators over one plan catalog.
type CostHandler struct {
	catalog     *pricing.Catalog
	advisor     *pricing.Advisor
	line        LineUsageService
	defaultPlan types.PlanID
	failures    UpstreamFailureRecorder
	validator   *core.Validator
	logger      *slog.Logger
}

// NewCostHandler creates a CostHandler. line may be nil, in which case
// /cost/usage answers feature_not_configured.
func NewCostHandler(
	catalog *pricing.Catalog,
	line LineUsageService,
	defaultPlan types.PlanID,
	v *core.Validator,
	l *slog.Logger,
) *CostHandler {
	if catalog == nil {
		catalog = pricing.DefaultCatalog()
	}
	if l == nil {
		l = slog.Default()
	}
	if defaultPlan == "" {
		defaultPlan = types.PlanLight
	}
	return &CostHandler{
		catalog:     catalog,
		advisor:     pricing.NewAdvisor(catalog),
		line:        line,
		defaultPlan: defaultPlan,
		validator:   v,
		logger:      l,
	}
}

// SetFailureRecorder enables upstream failure metrics.
func (h *CostHandler) SetFailureRecorder(r UpstreamFailureRecorder) {
	h.failures = r
}

// RegisterRoutes mounts the calculator routes under /cost.
func (h *CostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cost", func(r chi.Router) {
		r.Get("/plans", h.ListPlans)
		r.Get("/usage", h.GetUsage)
		r.Post("/estimate", h.Estimate)
		r.Post("/suggest", h.Suggest)
		r.Post("/budget", h.Budget)
		r.Post("/compare", h.Compare)
		r.Post("/simulate", h.Simulate)
	})
}

// decodeAndValidate is shared by every POST handler.
func (h *CostHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.DecodeJSON(w, r, dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	if err := h.validator.ValidateStruct(dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	return true
}

// ListPlans handles GET /v1/cost/plans.
func (h *CostHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.catalog.Plans()})
}

// Estimate handles POST /v1/cost/estimate. A blocked send is a 200 with
// canSend=false; the warning is repeated in meta.warnings.
func (h *CostHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	plan, err := h.catalog.Lookup(req.PlanID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	breakdown, err := pricing.CalculateMonthlyCost(*req.MessagesUsed, plan)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: EstimateResponse{CostBreakdown: breakdown, UsagePercent: breakdown.UsagePercent()},
		Meta: warningsMeta(breakdown.Warning),
	})
}

// Suggest handles POST /v1/cost/suggest.
func (h *CostHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	suggestion, err := h.advisor.Suggest(*req.MonthlyMessages)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: suggestion})
}

// Budget handles POST /v1/cost/budget.
func (h *CostHandler) Budget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	plan, err := h.catalog.Lookup(req.PlanID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := pricing.MaxMessagesWithBudget(*req.Budget, plan)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// Compare handles POST /v1/cost/compare.
func (h *CostHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	current, err := h.catalog.Lookup(req.CurrentPlanID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	next, err := h.catalog.Lookup(req.NewPlanID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	impact, err := pricing.AnalyzePlanImpact(current, next, *req.MonthlyMessages)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: impact})
}

// Simulate handles POST /v1/cost/simulate.
func (h *CostHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	sim, err := h.advisor.Simulate(*req.FriendsCount, *req.WeeklyFrequency)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: sim})
}

// GetUsage handles GET /v1/cost/usage?planId=. Quota and consumption are
// fetched from LINE concurrently; the consumption is then priced on the
// requested plan, or the configured default plan.
func (h *CostHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	if h.line == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeFeatureNotConfigured,
			"LINE usage is unavailable: no channel access token is configured",
			nil,
		))
		return
	}

	planID := types.PlanID(r.URL.Query().Get("planId"))
	if planID == "" {
		planID = h.defaultPlan
	}
	plan, err := h.catalog.Lookup(planID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var (
		quota       *types.MessageQuota
		consumption *types.MessageConsumption
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		quota, err = h.line.GetQuota(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		consumption, err = h.line.GetConsumption(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if h.failures != nil {
			h.failures.RecordUpstreamFailure("line")
		}
		types.LoggerFromContext(r.Context()).WarnContext(r.Context(), "LINE usage lookup failed", "error", err)
		core.Error(w, r, err)
		return
	}

	breakdown, err := pricing.CalculateMonthlyCost(consumption.TotalUsage, plan)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	resp := UsageResponse{
		Quota:    *quota,
		Estimate: EstimateResponse{CostBreakdown: breakdown, UsagePercent: breakdown.UsagePercent()},
	}
	if !quota.Unlimited() {
		remaining := max(quota.Value-consumption.TotalUsage, 0)
		resp.QuotaRemaining = &remaining
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: resp,
		Meta: warningsMeta(breakdown.Warning),
	})
}

func warningsMeta(warning string) *types.ResponseMeta {
	if warning == "" {
		return nil
	}
	return &types.ResponseMeta{Warnings: []string{warning}}
}
