package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type TrazabilidadPedido struct {
	PedidoId  int64                   `json:"pedidoId"`
	Fecha     *string                 `json:"fecha"`
	Estado    *string                 `json:"estado"`
	Productos []*TrazabilidadProducto `json:"productos"`
}

type TrazabilidadProducto struct {
	ProductoId         int64           `json:"productoId"`
	Nombre             *string         `json:"nombre"`
	CantidadSolicitada int64           `json:"cantidadSolicitada"`
	Receta             []*InsumoReceta `json:"receta"`
}

type InsumoReceta struct {
	InsumoId          int64   `json:"insumoId"`
	InsumoNombre      *string `json:"insumoNombre"`
	CantidadNecesaria float64 `json:"cantidadNecesaria"`
	UnidadMedida      *string `json:"unidadMedida"`
}

// GetOrderTraceability builds order -> products -> recipe supplies for one order.
// The order and recipe fetches are fatal; product and supply lookups only
// null out names. Line items keep their order and line items without
// productoId are skipped.
func GetOrderTraceability(ctx context.Context, port upstream.Port, pedidoId int64) (result *TrazabilidadPedido, err error) {
	if err := validateInput(traceInput{PedidoId: pedidoId}); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetOrderTraceability", attribute.Int64("pedidoId", pedidoId))
	defer func() { done(err, nil) }()

	order, err := models.GetOrder(ctx, port, pedidoId)
	if err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", pedidoId, err)
	}

	items := lo.Filter(order.Detalles, func(d models.OrderLineItem, _ int) bool { return d.ProductoId != nil })
	productIds := lo.Uniq(lo.Map(items, func(d models.OrderLineItem, _ int) int64 { return *d.ProductoId }))

	loaders := newLookupLoaders(port)

	// recipes per distinct product, fetched concurrently into disjoint slots
	recipes := make([][]*models.RecipeEntry, len(productIds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichWorkers())
	for i, id := range productIds {
		g.Go(func() error {
			entries, err := models.ListRecipeEntries(gctx, port, id)
			if err != nil {
				return fmt.Errorf("fetch recipe of product %d: %w", id, err)
			}
			recipes[i] = entries
			return nil
		})
	}
	var products map[int64]*models.Product
	var productsErr error
	productsDone := make(chan struct{})
	go func() {
		defer close(productsDone)
		products, productsErr = loaders.products(ctx, productIds)
	}()
	err = g.Wait()
	<-productsDone
	if err != nil {
		return nil, err
	}
	if productsErr != nil {
		return nil, productsErr
	}

	recipeOf := make(map[int64][]*models.RecipeEntry, len(productIds))
	supplyIds := make([]int64, 0)
	for i, id := range productIds {
		recipeOf[id] = recipes[i]
		for _, e := range recipes[i] {
			supplyIds = append(supplyIds, *e.InsumoId)
		}
	}
	supplies, err := loaders.supplies(ctx, supplyIds)
	if err != nil {
		return nil, err
	}

	result = &TrazabilidadPedido{
		PedidoId:  pedidoId,
		Fecha:     order.Fecha,
		Estado:    order.Estado,
		Productos: make([]*TrazabilidadProducto, 0, len(items)),
	}
	if order.ID != nil {
		result.PedidoId = *order.ID
	}
	for _, item := range items {
		id := *item.ProductoId
		node := &TrazabilidadProducto{
			ProductoId:         id,
			CantidadSolicitada: item.CantidadSolicitada,
			Receta:             make([]*InsumoReceta, 0, len(recipeOf[id])),
		}
		if p, ok := products[id]; ok {
			node.Nombre = p.Nombre
		}
		for _, e := range recipeOf[id] {
			entry := &InsumoReceta{
				InsumoId:          *e.InsumoId,
				CantidadNecesaria: e.CantidadNecesaria.InexactFloat64(),
			}
			if s, ok := supplies[*e.InsumoId]; ok {
				entry.InsumoNombre = s.Nombre
				entry.UnidadMedida = s.UnidadMedida
			}
			node.Receta = append(node.Receta, entry)
		}
		result.Productos = append(result.Productos, node)
	}
	return result, nil
}
