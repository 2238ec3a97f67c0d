package reports

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/xuri/excelize/v2"
)

var ErrUnknownReport = errors.New("unknown report")

// ExportableReports are the names accepted by ExportReport.
var ExportableReports = []string{"ventas", "produccion", "inventario", "consumo-insumos", "productos-mas-vendidos"}

type ExportQuery struct {
	Dates  DateRange
	Limite *int
}

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

// ExportReport runs the named report and renders it as a workbook.
func ExportReport(ctx context.Context, port upstream.Port, name string, q ExportQuery) (*excelize.File, error) {
	var sheets []sheet
	switch name {
	case "ventas":
		r, err := GetSalesReport(ctx, port, q.Dates)
		if err != nil {
			return nil, err
		}
		sheets = salesSheets(r)
	case "produccion":
		r, err := GetProductionReport(ctx, port, q.Dates)
		if err != nil {
			return nil, err
		}
		sheets = productionSheets(r)
	case "inventario":
		r, err := GetInventoryReport(ctx, port)
		if err != nil {
			return nil, err
		}
		sheets = inventorySheets(r)
	case "consumo-insumos":
		r, err := GetSupplyConsumption(ctx, port, q.Dates)
		if err != nil {
			return nil, err
		}
		sheets = []sheet{consumptionSheet(r)}
	case "productos-mas-vendidos":
		r, err := GetTopSellingProducts(ctx, port, q.Limite)
		if err != nil {
			return nil, err
		}
		sheets = []sheet{topSellingSheet(r)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}
	return writeWorkbook(sheets)
}

// writeWorkbook closes the file itself when it fails.
func writeWorkbook(sheets []sheet) (file *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}

		headers := make([]any, len(s.headers))
		for c, h := range s.headers {
			headers[c] = h
		}
		if err := f.SetSheetRow(s.name, "A1", &headers); err != nil {
			return nil, err
		}
		lastHeader, err := excelize.CoordinatesToCellName(len(s.headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(s.name, "A1", lastHeader, headerStyle); err != nil {
			return nil, err
		}

		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func str(s *string) string {
	return utils.DereferencePtr(s)
}

func salesSheets(r *ReporteVentas) []sheet {
	summary := sheet{
		name:    "Resumen",
		headers: []string{"Total ventas", "Total pedidos", "Completados", "Pendientes"},
		rows:    [][]any{{r.TotalVentas, r.TotalPedidos, r.PedidosCompletados, r.PedidosPendientes}},
	}
	byProduct := sheet{name: "Por producto", headers: []string{"Producto ID", "Producto", "Cantidad vendida", "Total vendido"}}
	for _, v := range r.VentasPorProducto {
		byProduct.rows = append(byProduct.rows, []any{v.ProductoId, str(v.ProductoNombre), v.CantidadVendida, v.TotalVendido})
	}
	byDay := sheet{name: "Por dia", headers: []string{"Fecha", "Total", "Pedidos"}}
	for _, d := range r.VentasPorDia {
		byDay.rows = append(byDay.rows, []any{d.Fecha, d.Total, d.Cantidad})
	}
	return []sheet{summary, byProduct, byDay}
}

func productionSheets(r *ReporteProduccion) []sheet {
	summary := sheet{
		name:    "Resumen",
		headers: []string{"Total ordenes", "Completadas", "Pendientes", "En proceso"},
		rows:    [][]any{{r.TotalOrdenesProduccion, r.OrdenesCompletadas, r.OrdenesPendientes, r.OrdenesEnProceso}},
	}
	byProduct := sheet{name: "Por producto", headers: []string{"Producto ID", "Producto", "Cantidad producida"}}
	for _, p := range r.ProduccionPorProducto {
		byProduct.rows = append(byProduct.rows, []any{p.ProductoId, str(p.ProductoNombre), p.CantidadProducida})
	}
	supplies := sheet{name: "Insumos", headers: []string{"Insumo ID", "Insumo", "Cantidad utilizada"}}
	for _, i := range r.InsumosMasUtilizados {
		supplies.rows = append(supplies.rows, []any{i.IdInsumo, str(i.Nombre), i.CantidadUtilizada})
	}
	byDay := sheet{name: "Por dia", headers: []string{"Fecha", "Ordenes"}}
	for _, d := range r.ProduccionPorDia {
		byDay.rows = append(byDay.rows, []any{d.Fecha, d.CantidadOrdenes})
	}
	return []sheet{summary, byProduct, supplies, byDay}
}

func inventorySheets(r *ReporteInventario) []sheet {
	products := sheet{name: "Productos", headers: []string{"ID", "Nombre", "Stock", "Precio venta"}}
	for _, p := range r.Productos {
		products.rows = append(products.rows, []any{p.Id, p.Nombre, p.Stock, p.PrecioVenta})
	}
	supplyHeaders := []string{"ID", "Nombre", "Stock", "Unidad", "Stock minimo", "Precio unitario"}
	supplyRows := func(list []*InsumoInventario) [][]any {
		rows := make([][]any, 0, len(list))
		for _, i := range list {
			rows = append(rows, []any{i.Id, i.Nombre, i.Stock, str(i.UnidadMedida), i.StockMinimo, i.PrecioUnitario})
		}
		return rows
	}
	return []sheet{
		{name: "Resumen", headers: []string{"Productos", "Insumos", "Valor inventario"}, rows: [][]any{{r.TotalProductos, r.TotalInsumos, r.ValorInventario}}},
		products,
		{name: "Insumos", headers: supplyHeaders, rows: supplyRows(r.Insumos)},
		{name: "Stock bajo", headers: supplyHeaders, rows: supplyRows(r.InsumosStockBajo)},
	}
}

func consumptionSheet(r []*ConsumoInsumo) sheet {
	s := sheet{name: "Consumo", headers: []string{"Insumo ID", "Insumo", "Cantidad total", "Unidad"}}
	for _, c := range r {
		s.rows = append(s.rows, []any{c.InsumoId, str(c.InsumoNombre), c.CantidadTotal, str(c.Unidad)})
	}
	return s
}

func topSellingSheet(r []*ProductoMasVendido) sheet {
	s := sheet{name: "Mas vendidos", headers: []string{"Producto ID", "Producto", "Cantidad vendida"}}
	for _, p := range r {
		s.rows = append(s.rows, []any{p.ProductoId, str(p.ProductoNombre), p.CantidadVendida})
	}
	return s
}
