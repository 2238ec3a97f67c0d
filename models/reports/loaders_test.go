package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cancelAfterCollection cancels the caller once the primary fetch returns.
type cancelAfterCollection struct {
	upstream.Port
	cancel context.CancelFunc
}

func (c *cancelAfterCollection) FetchCollection(ctx context.Context, resource upstream.Resource, filters upstream.Filters) ([]json.RawMessage, error) {
	raws, err := c.Port.FetchCollection(ctx, resource, filters)
	c.cancel()
	return raws, err
}

func TestCancelledCallerFailsEnrichedReports(t *testing.T) {
	cases := map[string]func(ctx context.Context, port upstream.Port) error{
		"ventas": func(ctx context.Context, port upstream.Port) error {
			_, err := GetSalesReport(ctx, port, DateRange{})
			return err
		},
		"mas vendidos": func(ctx context.Context, port upstream.Port) error {
			_, err := GetTopSellingProducts(ctx, port, nil)
			return err
		},
		"produccion": func(ctx context.Context, port upstream.Port) error {
			_, err := GetProductionReport(ctx, port, DateRange{})
			return err
		},
		"consumo": func(ctx context.Context, port upstream.Port) error {
			_, err := GetSupplyConsumption(ctx, port, DateRange{})
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			fixture := salesFixture()
			if name == "produccion" || name == "consumo" {
				fixture = productionFixture()
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := run(ctx, &cancelAfterCollection{Port: fixture, cancel: cancel})
			require.Error(t, err)
			assert.True(t, errors.Is(err, context.Canceled), err.Error())
			assert.True(t, errors.Is(err, upstream.ErrUnavailable))
		})
	}
}

func TestEnrichmentRunsConcurrentlyWithinWorkerLimit(t *testing.T) {
	Configure(Settings{EnrichWorkers: 3})
	t.Cleanup(func() { Configure(Settings{EnrichWorkers: 8}) })

	lines := make([]obj, 0, 8)
	products := make([]any, 0, 8)
	for id := 1; id <= 8; id++ {
		// lower ids sell more so the ranking is 1..8
		lines = append(lines, obj{"productoId": id, "cantidad_solicitada": 20 - id, "subtotal": 1})
		products = append(products, obj{"id": id, "nombre": fmt.Sprintf("Chifle %d", id)})
	}
	port := upstreamtest.New().
		With(upstream.ResourceOrders, obj{"id": 1, "total": 8, "estado": "pagado", "detalles": lines}).
		With(upstream.ResourceProducts, products...).
		OnFetchByID(func(ctx context.Context, _ upstream.Resource, _ int64) {
			select {
			case <-time.After(20 * time.Millisecond):
			case <-ctx.Done():
			}
		})

	results, err := GetTopSellingProducts(context.Background(), port, nil)
	require.NoError(t, err)

	peak := port.PeakInFlight()
	assert.Greater(t, peak, 1)
	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 8, port.TotalByIDCalls(upstream.ResourceProducts))

	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, int64(i+1), r.ProductoId)
		require.NotNil(t, r.ProductoNombre)
		assert.Equal(t, fmt.Sprintf("Chifle %d", i+1), *r.ProductoNombre)
	}
}
