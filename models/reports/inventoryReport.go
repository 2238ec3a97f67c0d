package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/models"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ReporteInventario struct {
	TotalProductos   int                   `json:"totalProductos"`
	TotalInsumos     int                   `json:"totalInsumos"`
	ValorInventario  float64               `json:"valorInventario"`
	Productos        []*ProductoInventario `json:"productos"`
	Insumos          []*InsumoInventario   `json:"insumos"`
	InsumosStockBajo []*InsumoInventario   `json:"insumosStockBajo"`
}

type ProductoInventario struct {
	Id          int64   `json:"id"`
	Nombre      string  `json:"nombre"`
	Stock       float64 `json:"stock"`
	PrecioVenta float64 `json:"precioVenta"`
}

type InsumoInventario struct {
	Id             int64   `json:"id"`
	Nombre         string  `json:"nombre"`
	Stock          float64 `json:"stock"`
	UnidadMedida   *string `json:"unidadMedida"`
	StockMinimo    float64 `json:"stockMinimo"`
	PrecioUnitario float64 `json:"precioUnitario"`
}

// GetInventoryReport lists products and supplies and values the product
// stock. Totals cover every fetched record; listings skip records without id.
func GetInventoryReport(ctx context.Context, port upstream.Port) (result *ReporteInventario, err error) {
	ctx, done := startReport(ctx, "GetInventoryReport")
	defer func() { done(err, nil) }()

	var products []*models.Product
	var supplies []*models.Supply
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = models.ListProducts(gctx, port); err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if supplies, err = models.ListSupplies(gctx, port); err != nil {
			return fmt.Errorf("fetch supplies: %w", err)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	value := decimal.Zero
	for _, p := range products {
		value = value.Add(p.PrecioVenta.Mul(p.Stock))
	}

	listedSupplies := lo.Filter(supplies, func(s *models.Supply, _ int) bool { return s.ID != nil })
	toRow := func(s *models.Supply, _ int) *InsumoInventario {
		return &InsumoInventario{
			Id:             *s.ID,
			Nombre:         utils.DereferencePtr(s.Nombre),
			Stock:          s.Stock.InexactFloat64(),
			UnidadMedida:   s.UnidadMedida,
			StockMinimo:    s.EffectiveStockMinimo().InexactFloat64(),
			PrecioUnitario: s.PrecioUnitario.InexactFloat64(),
		}
	}

	result = &ReporteInventario{
		TotalProductos:  len(products),
		TotalInsumos:    len(supplies),
		ValorInventario: value.InexactFloat64(),
		Productos: lo.FilterMap(products, func(p *models.Product, _ int) (*ProductoInventario, bool) {
			if p.ID == nil {
				return nil, false
			}
			return &ProductoInventario{
				Id:          *p.ID,
				Nombre:      utils.DereferencePtr(p.Nombre),
				Stock:       p.Stock.InexactFloat64(),
				PrecioVenta: p.PrecioVenta.InexactFloat64(),
			}, true
		}),
		Insumos: lo.Map(listedSupplies, toRow),
		InsumosStockBajo: lo.Map(
			lo.Filter(listedSupplies, func(s *models.Supply, _ int) bool { return s.IsLowStock() }),
			toRow,
		),
	}
	return result, nil
}
