package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// ObjectStore is where exported reports are written.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Exporter writes report snapshots to object storage.
type Exporter struct {
	agg     *Aggregator
	objects ObjectStore
	ttl     time.Duration
}

// NewExporter creates an Exporter. A nil objects store disables exports.
func NewExporter(agg *Aggregator, objects ObjectStore, ttl time.Duration) *Exporter {
	return &Exporter{agg: agg, objects: objects, ttl: ttl}
}

func exportPrefix(userID string) string {
	return "stats/" + userID + "/"
}

// Export computes the caller's report, uploads it and returns a download link.
func (e *Exporter) Export(ctx context.Context, userID string) (*models.StatsExport, error) {
	if e.objects == nil {
		return nil, fmt.Errorf("export: %w: object storage not configured", models.ErrStoreUnavailable)
	}

	report, err := e.agg.ComputeStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	key := exportPrefix(userID) + report.GeneratedAt.Format("20060102T150405.000Z") + ".json"
	if err := e.objects.Upload(ctx, key, data, "application/json"); err != nil {
		return nil, unavailable("upload export", err)
	}

	url, err := e.objects.PresignedURL(ctx, key, e.ttl)
	if err != nil {
		return nil, unavailable("presign export", err)
	}

	return &models.StatsExport{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().Add(e.ttl).UTC(),
	}, nil
}

// List returns the keys of the caller's previous exports.
func (e *Exporter) List(ctx context.Context, userID string) ([]string, error) {
	if e.objects == nil {
		return nil, fmt.Errorf("list exports: %w: object storage not configured", models.ErrStoreUnavailable)
	}
	keys, err := e.objects.List(ctx, exportPrefix(userID))
	if err != nil {
		return nil, unavailable("list exports", err)
	}
	return keys, nil
}
