package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"detailhub/internal/domain"
	applog "detailhub/internal/log"
	"detailhub/internal/notify"
)

type lowStockSource interface {
	ListLowStock(ctx context.Context) ([]domain.InventoryItem, error)
}

// LowStockDigest periodically sends one message listing every item at or
// below its minimum level.
type LowStockDigest struct {
	scheduler *cron.Cron
	source    lowStockSource
	provider  notify.Provider
	recipient string
	jobID     cron.EntryID
}

func NewLowStockDigest(source lowStockSource, provider notify.Provider, recipient string) *LowStockDigest {
	return &LowStockDigest{
		scheduler: cron.New(cron.WithSeconds()),
		source:    source,
		provider:  provider,
		recipient: recipient,
	}
}

// Start schedules the digest with a six-field cron spec.
func (d *LowStockDigest) Start(spec string) error {
	var err error
	d.jobID, err = d.scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := d.Run(ctx); err != nil {
			applog.Error(nil, "jobs.low_stock.fail", err, nil)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule low stock digest: %w", err)
	}
	d.scheduler.Start()
	applog.Info(nil, "jobs.low_stock.scheduled", map[string]any{"spec": spec})
	return nil
}

// Stop waits for a running digest to finish.
func (d *LowStockDigest) Stop() {
	<-d.scheduler.Stop().Done()
}

// Run sends the digest now and reports how many items it listed. Nothing is
// sent when every item is above its minimum.
func (d *LowStockDigest) Run(ctx context.Context) (int, error) {
	items, err := d.source.ListLowStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %s %s on hand (minimum %s)\n", it.Name, it.CurrentStock.String(), it.Unit, it.MinStock.String())
	}
	subject := fmt.Sprintf("%d inventory item(s) low on stock", len(items))
	if err := d.provider.Send(ctx, subject, b.String(), d.recipient); err != nil {
		return 0, err
	}
	applog.Info(nil, "jobs.low_stock.sent", map[string]any{"items": len(items)})
	return len(items), nil
}
