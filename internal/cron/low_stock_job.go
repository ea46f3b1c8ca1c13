package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pos-inventory/internal/inventory"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

type lowStockScanner interface {
	ScanLowStock(ctx context.Context) (*inventory.LowStockScanResult, error)
}

type LowStockJobParams struct {
	Logger    *logger.Logger
	Inventory lowStockScanner
}

// NewLowStockJob builds the job that re-checks every tracked item against its
// threshold and queues alerts for the ones that are still low.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &lowStockJob{logg: params.Logger, inventory: params.Inventory}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	inventory lowStockScanner
}

func (j *lowStockJob) Name() string { return "low-stock-scan" }

func (j *lowStockJob) Run(ctx context.Context) error {
	result, err := j.inventory.ScanLowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_items":  result.LowItems,
		"alerted":    result.Alerted,
		"suppressed": result.Suppressed,
	})
	if result.LowItems > 0 {
		j.logg.Warn(logCtx, "low stock items found")
		return nil
	}
	j.logg.Info(logCtx, "low stock scan complete")
	return nil
}
