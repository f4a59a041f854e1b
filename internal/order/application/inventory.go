package application

import (
	"context"
	"log/slog"

	"github.com/artmarket/exchange/internal/order/domain"
	"github.com/artmarket/exchange/pkg/metrics"
)

// InventoryCoordinator tracks per-line-item deductions against the external
// inventory service. The caller owns the deduction log and passes the
// successful prefix back for reversal.
type InventoryCoordinator struct {
	log       *slog.Logger
	inventory InventoryService
	metrics   *metrics.CommitMetrics
}

func NewInventoryCoordinator(log *slog.Logger, inventory InventoryService, m *metrics.CommitMetrics) *InventoryCoordinator {
	return &InventoryCoordinator{log: log, inventory: inventory, metrics: m}
}

// Deduct holds one line item's inventory. The underlying error propagates
// unchanged; the orchestrator treats any failure here as fatal to the attempt.
func (c *InventoryCoordinator) Deduct(ctx context.Context, li domain.LineItem) error {
	return c.inventory.DeductInventory(ctx, li)
}

// UndeductAll reverses the given deductions in order. Reversal is best-effort:
// failures are logged and metered but never abort the loop or reach the
// caller, so they cannot mask the error that triggered compensation.
func (c *InventoryCoordinator) UndeductAll(ctx context.Context, deducted []domain.LineItem) {
	for _, li := range deducted {
		if err := c.inventory.UndeductInventory(ctx, li); err != nil {
			c.metrics.UndeductFailures.Inc()
			c.log.Error("inventory undeduct failed",
				"order_id", li.OrderID,
				"line_item_id", li.ID,
				"artwork_id", li.ArtworkID,
				"err", err)
		}
	}
}
