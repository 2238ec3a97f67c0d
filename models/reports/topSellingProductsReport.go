package reports

import (
	"context"
	"fmt"
	"sort"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type ProductoMasVendido struct {
	ProductoId      int64   `json:"productoId"`
	ProductoNombre  *string `json:"productoNombre"`
	CantidadVendida int64   `json:"cantidadVendida"`
}

type productSales struct {
	productoId int64
	cantidad   int64
	subtotal   decimal.Decimal
}

// sumProductSales groups line items by productoId in first-seen order and
// ranks them by quantity, descending. Ties keep first-seen order. Line items
// without productoId are skipped.
func sumProductSales(orders []*models.Order) []*productSales {
	byId := map[int64]*productSales{}
	ranked := make([]*productSales, 0)
	for _, o := range orders {
		for _, d := range o.Detalles {
			if d.ProductoId == nil {
				continue
			}
			row, ok := byId[*d.ProductoId]
			if !ok {
				row = &productSales{productoId: *d.ProductoId}
				byId[*d.ProductoId] = row
				ranked = append(ranked, row)
			}
			row.cantidad += d.CantidadSolicitada
			row.subtotal = row.subtotal.Add(d.Subtotal)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].cantidad > ranked[j].cantidad
	})
	return ranked
}

// GetTopSellingProducts ranks products over all orders, regardless of status.
// A nil limite means DefaultLimite. Only the returned products are enriched.
func GetTopSellingProducts(ctx context.Context, port upstream.Port, limite *int) (results []*ProductoMasVendido, err error) {
	limit := DefaultLimite
	if limite != nil {
		limit = *limite
	}
	if err := validateInput(topSellingInput{Limite: limit}); err != nil {
		return nil, err
	}

	ctx, done := startReport(ctx, "GetTopSellingProducts", attribute.Int("limite", limit))
	defer func() { done(err, map[string]any{"rows": len(results)}) }()

	orders, err := models.ListOrders(ctx, port, models.OrderFilters{})
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	ranked := sumProductSales(orders)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	names, err := newLookupLoaders(port).products(ctx, lo.Map(ranked, func(r *productSales, _ int) int64 { return r.productoId }))
	if err != nil {
		return nil, err
	}

	results = make([]*ProductoMasVendido, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, &ProductoMasVendido{
			ProductoId:      r.productoId,
			ProductoNombre:  productName(names, r.productoId),
			CantidadVendida: r.cantidad,
		})
	}
	return results, nil
}
