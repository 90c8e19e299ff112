package external

import (
	"context"

	"linecast/internal/types"
)

// LineQuotaService reads the messaging quota and current-month consumption
// of a LINE Official Account. LineClient is the production implementation.
type LineQuotaService interface {
	GetQuota(ctx context.Context) (*types.MessageQuota, error)
	GetConsumption(ctx context.Context) (*types.MessageConsumption, error)
}

var _ LineQuotaService = (*LineClient)(nil)
