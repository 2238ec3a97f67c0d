package graph

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"bitbucket.org/mmdatafocus/chifles_reporting/middlewares"
	"bitbucket.org/mmdatafocus/chifles_reporting/models/reports"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/99designs/gqlgen/graphql"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	labelPedidosPorCliente    = "Error al recuperar pedidos por cliente"
	labelConsumoInsumos       = "Error al recuperar consumo de insumos"
	labelProductosMasVendidos = "Error al recuperar productos más vendidos"
	labelTrazabilidadPedido   = "Error al recuperar trazabilidad del pedido"
	labelReporteProduccion    = "Error al recuperar reporte de producción"
	labelReporteInventario    = "Error al recuperar reporte de inventario"
	labelReporteVentas        = "Error al recuperar reporte de ventas"
)

const (
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamRejected    = "UPSTREAM_REJECTED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamMalformed   = "UPSTREAM_MALFORMED"
	CodeBadUserInput        = "BAD_USER_INPUT"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeInternal            = "INTERNAL"
)

// runReport resolves the port bound to the request and maps the report error.
func runReport[T any](ctx context.Context, r *Resolver, label string, run func(ctx context.Context, port upstream.Port) (T, error)) (T, error) {
	var zero T

	fieldName := ""
	if fc := graphql.GetFieldContext(ctx); fc != nil {
		fieldName = fc.Field.Name
	}
	ctx, span := r.tracer().Start(ctx, "resolve "+fieldName)
	defer span.End()

	port, ok := middlewares.PortFor(ctx)
	if !ok {
		err := reportError(ctx, r.logger(), label, upstream.ErrNoCredential)
		span.SetStatus(codes.Error, err.Message)
		return zero, err
	}

	result, err := run(ctx, port)
	if err != nil {
		gqlErr := reportError(ctx, r.logger(), label, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, gqlErr.Message)
		span.SetAttributes(attribute.String("error.code", fmt.Sprint(gqlErr.Extensions["code"])))
		return zero, gqlErr
	}
	return result, nil
}

// ReportError renders err as "<label>: <status> <message>" with code and
// status extensions.
func ReportError(ctx context.Context, label string, err error) *gqlerror.Error {
	return reportError(ctx, config.GetLogger(), label, err)
}

func reportError(ctx context.Context, logger *logrus.Logger, label string, err error) *gqlerror.Error {
	code, status, detail := classifyError(err)

	message := label + ": " + detail
	if status != 0 {
		message = fmt.Sprintf("%s: %d %s", label, status, detail)
	}
	extensions := map[string]interface{}{"code": code}
	if status != 0 {
		extensions["status"] = status
	}

	if code == CodeInternal {
		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		config.LogError(logger, "graph", "ReportError", label, map[string]interface{}{"correlation_id": cid}, err)
	}

	gqlErr := &gqlerror.Error{Message: message, Extensions: extensions}
	if graphql.GetFieldContext(ctx) != nil {
		gqlErr.Path = graphql.GetPath(ctx)
	}
	return gqlErr
}

func classifyError(err error) (code string, status int, detail string) {
	var verr *reports.ValidationError
	if errors.As(err, &verr) {
		return CodeBadUserInput, 0, verr.Error()
	}
	if errors.Is(err, upstream.ErrNoCredential) {
		return CodeUnauthenticated, 0, "Access Denied"
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		detail = upErr.Message
		if detail == "" && upErr.Cause != nil {
			detail = upErr.Cause.Error()
		}
		if detail == "" {
			detail = upErr.Kind.Error()
		}
		switch {
		case errors.Is(err, upstream.ErrNotFound):
			return CodeNotFound, upErr.StatusCode, detail
		case errors.Is(err, upstream.ErrRejected):
			return CodeUpstreamRejected, upErr.StatusCode, detail
		case errors.Is(err, upstream.ErrMalformed):
			return CodeUpstreamMalformed, 0, detail
		case errors.Is(err, upstream.ErrUnavailable):
			return CodeUpstreamUnavailable, 0, detail
		}
	}
	return CodeInternal, 0, err.Error()
}
