package graph

import (
	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Resolver holds what the report resolvers share across requests. The
// upstream port is per request and comes from the context instead.
type Resolver struct {
	Tracer trace.Tracer
	Logger *logrus.Logger
}

func (r *Resolver) tracer() trace.Tracer {
	if r.Tracer == nil {
		return otel.Tracer("chifles_reporting/graph")
	}
	return r.Tracer
}

func (r *Resolver) logger() *logrus.Logger {
	if r.Logger == nil {
		return config.GetLogger()
	}
	return r.Logger
}
