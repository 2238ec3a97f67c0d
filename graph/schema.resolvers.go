package graph

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/models/reports"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
)

// PedidosPorCliente is the resolver for the pedidosPorCliente field.
func (r *queryResolver) PedidosPorCliente(ctx context.Context, clienteID int, fechaInicio *string, fechaFin *string) ([]*reports.PedidoResumen, error) {
	return runReport(ctx, r.Resolver, labelPedidosPorCliente, func(ctx context.Context, port upstream.Port) ([]*reports.PedidoResumen, error) {
		return reports.GetOrdersByClient(ctx, port, int64(clienteID), reports.DateRange{FechaInicio: fechaInicio, FechaFin: fechaFin})
	})
}

// ConsumoInsumos is the resolver for the consumoInsumos field.
func (r *queryResolver) ConsumoInsumos(ctx context.Context, fechaInicio *string, fechaFin *string) ([]*reports.ConsumoInsumo, error) {
	return runReport(ctx, r.Resolver, labelConsumoInsumos, func(ctx context.Context, port upstream.Port) ([]*reports.ConsumoInsumo, error) {
		return reports.GetSupplyConsumption(ctx, port, reports.DateRange{FechaInicio: fechaInicio, FechaFin: fechaFin})
	})
}

// ProductosMasVendidos is the resolver for the productosMasVendidos field.
func (r *queryResolver) ProductosMasVendidos(ctx context.Context, limite *int) ([]*reports.ProductoMasVendido, error) {
	return runReport(ctx, r.Resolver, labelProductosMasVendidos, func(ctx context.Context, port upstream.Port) ([]*reports.ProductoMasVendido, error) {
		return reports.GetTopSellingProducts(ctx, port, limite)
	})
}

// TrazabilidadPedido is the resolver for the trazabilidadPedido field.
func (r *queryResolver) TrazabilidadPedido(ctx context.Context, pedidoID int) (*reports.TrazabilidadPedido, error) {
	return runReport(ctx, r.Resolver, labelTrazabilidadPedido, func(ctx context.Context, port upstream.Port) (*reports.TrazabilidadPedido, error) {
		return reports.GetOrderTraceability(ctx, port, int64(pedidoID))
	})
}

// ReporteProduccion is the resolver for the reporteProduccion field.
func (r *queryResolver) ReporteProduccion(ctx context.Context, fechaInicio *string, fechaFin *string) (*reports.ReporteProduccion, error) {
	return runReport(ctx, r.Resolver, labelReporteProduccion, func(ctx context.Context, port upstream.Port) (*reports.ReporteProduccion, error) {
		return reports.GetProductionReport(ctx, port, reports.DateRange{FechaInicio: fechaInicio, FechaFin: fechaFin})
	})
}

// ReporteInventario is the resolver for the reporteInventario field.
func (r *queryResolver) ReporteInventario(ctx context.Context) (*reports.ReporteInventario, error) {
	return runReport(ctx, r.Resolver, labelReporteInventario, reports.GetInventoryReport)
}

// ReporteVentas is the resolver for the reporteVentas field.
func (r *queryResolver) ReporteVentas(ctx context.Context, fechaInicio *string, fechaFin *string) (*reports.ReporteVentas, error) {
	return runReport(ctx, r.Resolver, labelReporteVentas, func(ctx context.Context, port upstream.Port) (*reports.ReporteVentas, error) {
		return reports.GetSalesReport(ctx, port, reports.DateRange{FechaInicio: fechaInicio, FechaFin: fechaFin})
	})
}

// Query returns QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

type queryResolver struct{ *Resolver }
