package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// lookupLoaders dedupe the per-id enrichment lookups of one report call.
// Each batch fans out over its distinct keys with a bounded errgroup.
type lookupLoaders struct {
	productLoader *dataloader.Loader[int64, *models.Product]
	supplyLoader  *dataloader.Loader[int64, *models.Supply]
}

func newLookupLoaders(port upstream.Port) *lookupLoaders {
	productReader := &lookupReader[models.Product]{port: port, resource: upstream.ResourceProducts, fetch: models.GetProduct}
	supplyReader := &lookupReader[models.Supply]{port: port, resource: upstream.ResourceSupplies, fetch: models.GetSupply}
	return &lookupLoaders{
		productLoader: dataloader.NewBatchedLoader(productReader.load, dataloader.WithWait[int64, *models.Product](time.Millisecond)),
		supplyLoader:  dataloader.NewBatchedLoader(supplyReader.load, dataloader.WithWait[int64, *models.Supply](time.Millisecond)),
	}
}

type lookupReader[T any] struct {
	port     upstream.Port
	resource upstream.Resource
	fetch    func(ctx context.Context, port upstream.Port, id int64) (*T, error)
}

func (r *lookupReader[T]) load(ctx context.Context, ids []int64) []*dataloader.Result[*T] {
	ctx, span := tracer.Start(ctx, "reports.lookup."+string(r.resource), trace.WithAttributes(attribute.Int("keys", len(ids))))
	defer span.End()

	results := make([]*dataloader.Result[*T], len(ids))
	var g errgroup.Group
	g.SetLimit(enrichWorkers())
	for i, id := range ids {
		g.Go(func() error {
			v, err := r.fetch(ctx, r.port, id)
			results[i] = &dataloader.Result[*T]{Data: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// loadAll resolves every id and returns the successful lookups. Failures are
// logged and left out of the map, so callers read a nil entity for them. A
// cancelled or expired ctx fails the whole call instead.
func loadAll[T any](ctx context.Context, loader *dataloader.Loader[int64, *T], resource upstream.Resource, ids []int64) (map[int64]*T, error) {
	ids = lo.Uniq(ids)
	thunks := make([]dataloader.Thunk[*T], len(ids))
	for i, id := range ids {
		thunks[i] = loader.Load(ctx, id)
	}

	found := make(map[int64]*T, len(ids))
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			if ctx.Err() != nil {
				return nil, upstream.Unavailable(resource, ctx.Err())
			}
			logLookupFailure(ctx, resource, ids[i], err)
			continue
		}
		if v != nil {
			found[ids[i]] = v
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, upstream.Unavailable(resource, err)
	}
	return found, nil
}

func (l *lookupLoaders) products(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	return loadAll(ctx, l.productLoader, upstream.ResourceProducts, ids)
}

func (l *lookupLoaders) supplies(ctx context.Context, ids []int64) (map[int64]*models.Supply, error) {
	return loadAll(ctx, l.supplyLoader, upstream.ResourceSupplies, ids)
}

func logLookupFailure(ctx context.Context, resource upstream.Resource, id int64, err error) {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.LogWarn(config.GetLogger(), "reports", "loadAll", logrus.Fields{
		"resource":       string(resource),
		"id":             id,
		"status":         upstream.StatusOf(err),
		"correlation_id": cid,
	}, err)
}

func productName(found map[int64]*models.Product, id int64) *string {
	if p, ok := found[id]; ok {
		return p.Nombre
	}
	return nil
}
