package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/catalog"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/registry"
)

type stubReader struct {
	items []ledger.Item
}

func (s *stubReader) ListCategories(context.Context) ([]catalog.Category, error) { return nil, nil }
func (s *stubReader) ListUnits(context.Context) ([]catalog.Unit, error)          { return nil, nil }
func (s *stubReader) ListVendors(context.Context) ([]catalog.Vendor, error)      { return nil, nil }
func (s *stubReader) ListItems(context.Context) ([]ledger.Item, error)           { return s.items, nil }
func (s *stubReader) ListPurchases(context.Context) ([]ledger.Movement, error)   { return nil, nil }
func (s *stubReader) ListConsumptions(context.Context) ([]ledger.Movement, error) {
	return nil, nil
}
func (s *stubReader) ListReturns(context.Context) ([]ledger.Movement, error)     { return nil, nil }
func (s *stubReader) ListAdjustments(context.Context) ([]ledger.Movement, error) { return nil, nil }

func TestExpiryScanRefreshesAndCompletes(t *testing.T) {
	soon := time.Now().UTC().Add(3 * 24 * time.Hour)
	reader := &stubReader{
		items: []ledger.Item{{ID: "i1", Name: "Milk", HasExpiry: true, ExpiryDate: &soon}},
	}
	reg := registry.NewRegistry(reader, slog.New(slog.DiscardHandler), nil)
	job := NewExpiryScanJob(reg, slog.New(slog.DiscardHandler), 14)

	payload, err := json.Marshal(ExpiryScanPayload{WindowDays: 14})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskExpiryScan, payload)))
	// The sweep reloaded the snapshot before scanning.
	require.Len(t, reg.Snapshot().Items, 1)
}

func TestExpiryScanRejectsMalformedPayload(t *testing.T) {
	reg := registry.NewRegistry(&stubReader{}, slog.New(slog.DiscardHandler), nil)
	job := NewExpiryScanJob(reg, slog.New(slog.DiscardHandler), 14)

	err := job.Handle(context.Background(), asynq.NewTask(TaskExpiryScan, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
