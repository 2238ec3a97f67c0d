package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"bitbucket.org/mmdatafocus/chifles_reporting/models/reports"
	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

type Config struct {
	Resolvers  ResolverRoot
	Directives DirectiveRoot
}

type ResolverRoot interface {
	Query() QueryResolver
}

type DirectiveRoot struct {
	Auth func(ctx context.Context, obj interface{}, next graphql.Resolver) (res interface{}, err error)
}

type QueryResolver interface {
	PedidosPorCliente(ctx context.Context, clienteID int, fechaInicio *string, fechaFin *string) ([]*reports.PedidoResumen, error)
	ConsumoInsumos(ctx context.Context, fechaInicio *string, fechaFin *string) ([]*reports.ConsumoInsumo, error)
	ProductosMasVendidos(ctx context.Context, limite *int) ([]*reports.ProductoMasVendido, error)
	TrazabilidadPedido(ctx context.Context, pedidoID int) (*reports.TrazabilidadPedido, error)
	ReporteProduccion(ctx context.Context, fechaInicio *string, fechaFin *string) (*reports.ReporteProduccion, error)
	ReporteInventario(ctx context.Context) (*reports.ReporteInventario, error)
	ReporteVentas(ctx context.Context, fechaInicio *string, fechaFin *string) (*reports.ReporteVentas, error)
}

// NewExecutableSchema serves schema.graphqls with the given resolvers. Resolver
// results are completed against the schema by their json field names.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers, directives: cfg.Directives}
}

type executableSchema struct {
	resolvers  ResolverRoot
	directives DirectiveRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	rc := graphql.GetOperationContext(ctx)
	ec := executionContext{rc, e}

	switch rc.Operation.Operation {
	case ast.Query:
		first := true
		return func(ctx context.Context) *graphql.Response {
			if !first {
				return nil
			}
			first = false
			var buf bytes.Buffer
			ec._Query(ctx, rc.Operation.SelectionSet).MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}
}

type executionContext struct {
	*graphql.OperationContext
	*executableSchema
}

type queryField func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error)

var queryFields = map[string]queryField{
	"pedidosPorCliente": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		clienteID, err := intArg(args, "clienteId")
		if err != nil {
			return nil, err
		}
		return r.PedidosPorCliente(ctx, clienteID, stringArg(args, "fechaInicio"), stringArg(args, "fechaFin"))
	},
	"consumoInsumos": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		return r.ConsumoInsumos(ctx, stringArg(args, "fechaInicio"), stringArg(args, "fechaFin"))
	},
	"productosMasVendidos": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		limite, err := optionalIntArg(args, "limite")
		if err != nil {
			return nil, err
		}
		return r.ProductosMasVendidos(ctx, limite)
	},
	"trazabilidadPedido": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		pedidoID, err := intArg(args, "pedidoId")
		if err != nil {
			return nil, err
		}
		return r.TrazabilidadPedido(ctx, pedidoID)
	},
	"reporteProduccion": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		return r.ReporteProduccion(ctx, stringArg(args, "fechaInicio"), stringArg(args, "fechaFin"))
	},
	"reporteInventario": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		return r.ReporteInventario(ctx)
	},
	"reporteVentas": func(ctx context.Context, r QueryResolver, args map[string]interface{}) (interface{}, error) {
		return r.ReporteVentas(ctx, stringArg(args, "fechaInicio"), stringArg(args, "fechaFin"))
	},
}

var nullValue = []byte("null")

func (ec *executionContext) _Query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"Query"})

	out := make([][]byte, len(fields))
	valid := make([]bool, len(fields))
	var wg sync.WaitGroup
	for i, field := range fields {
		ctx := graphql.WithRootFieldContext(ctx, &graphql.RootFieldContext{Object: "Query", Field: field})
		switch field.Name {
		case "__typename":
			out[i], valid[i] = quote("Query"), true
		case "__schema", "__type":
			fc := &graphql.FieldContext{Object: "Query", Field: field}
			graphql.AddError(graphql.WithFieldContext(ctx, fc), gqlerror.Errorf("introspection is disabled"))
			out[i], valid[i] = nullable(field.Definition.Type)
		default:
			wg.Add(1)
			go func(i int, field graphql.CollectedField) {
				defer wg.Done()
				out[i], valid[i] = ec.rootField(ctx, field)
			}(i, field)
		}
	}
	wg.Wait()

	for _, ok := range valid {
		if !ok {
			return graphql.Null
		}
	}
	return graphql.WriterFunc(func(w io.Writer) {
		io.WriteString(w, "{")
		for i, field := range fields {
			if i > 0 {
				io.WriteString(w, ",")
			}
			w.Write(quote(field.Alias))
			io.WriteString(w, ":")
			w.Write(out[i])
		}
		io.WriteString(w, "}")
	})
}

func (ec *executionContext) rootField(ctx context.Context, field graphql.CollectedField) (raw []byte, ok bool) {
	var completed []byte
	var valid bool
	inner := func(ctx context.Context) graphql.Marshaler {
		completed, valid = ec.resolveRootField(ctx, field)
		return nil
	}
	if ec.RootResolverMiddleware != nil {
		ec.RootResolverMiddleware(ctx, inner)
	} else {
		inner(ctx)
	}
	return completed, valid
}

func (ec *executionContext) resolveRootField(ctx context.Context, field graphql.CollectedField) (raw []byte, ok bool) {
	fc := &graphql.FieldContext{
		Object:     "Query",
		Field:      field,
		Args:       field.ArgumentMap(ec.Variables),
		IsMethod:   true,
		IsResolver: true,
	}
	ctx = graphql.WithFieldContext(ctx, fc)
	typ := field.Definition.Type

	defer func() {
		if r := recover(); r != nil {
			graphql.AddError(ctx, ec.Recover(ctx, r))
			raw, ok = nullable(typ)
		}
	}()

	resolve, known := queryFields[field.Name]
	if !known {
		graphql.AddError(ctx, gqlerror.Errorf("field %s is not implemented", field.Name))
		return nullable(typ)
	}

	next := ec.withDirectives(field.Definition, func(rctx context.Context) (interface{}, error) {
		return resolve(rctx, ec.resolvers.Query(), fc.Args)
	})
	var res interface{}
	var err error
	if ec.ResolverMiddleware != nil {
		res, err = ec.ResolverMiddleware(ctx, next)
	} else {
		res, err = next(ctx)
	}
	if err != nil {
		graphql.AddError(ctx, err)
		return nullable(typ)
	}
	fc.Result = res

	value, err := plainValue(res)
	if err != nil {
		graphql.AddError(ctx, err)
		return nullable(typ)
	}
	c := completer{ctx: ctx, ec: ec}
	return c.complete(graphql.GetPath(ctx), typ, field.Selections, value)
}

func (ec *executionContext) withDirectives(def *ast.FieldDefinition, next graphql.Resolver) graphql.Resolver {
	if def.Directives.ForName("auth") == nil {
		return next
	}
	return func(ctx context.Context) (interface{}, error) {
		if ec.directives.Auth == nil {
			return nil, errors.New("directive auth is not implemented")
		}
		return ec.directives.Auth(ctx, nil, next)
	}
}

// plainValue turns a resolver result into json-shaped maps, slices and numbers.
func plainValue(res interface{}) (interface{}, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type completer struct {
	ctx context.Context
	ec  *executionContext
}

func (c *completer) errorf(path ast.Path, format string, args ...interface{}) {
	graphql.AddError(c.ctx, &gqlerror.Error{Message: fmt.Sprintf(format, args...), Path: path})
}

// complete renders v as typ. ok is false when a non-null position ends up
// null, so the caller nulls its own position.
func (c *completer) complete(path ast.Path, typ *ast.Type, sel ast.SelectionSet, v interface{}) ([]byte, bool) {
	if v == nil {
		if typ.NonNull {
			c.errorf(path, "must not be null")
			return nil, false
		}
		return nullValue, true
	}

	if typ.Elem != nil {
		items, isList := v.([]interface{})
		if !isList {
			c.errorf(path, "expected a list for %s", typ.String())
			return nullable(typ)
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range items {
			raw, ok := c.complete(pathAt(path, ast.PathIndex(i)), typ.Elem, sel, item)
			if !ok {
				return nullable(typ)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
		return buf.Bytes(), true
	}

	def := c.ec.Schema().Types[typ.NamedType]
	if def == nil {
		c.errorf(path, "unknown type %s", typ.NamedType)
		return nullable(typ)
	}
	switch def.Kind {
	case ast.Object:
		return c.completeObject(path, def, typ, sel, v)
	case ast.Scalar, ast.Enum:
		raw, err := scalarValue(def.Name, v)
		if err != nil {
			c.errorf(path, "%s", err.Error())
			return nullable(typ)
		}
		return raw, true
	}
	c.errorf(path, "unsupported type %s", typ.NamedType)
	return nullable(typ)
}

func (c *completer) completeObject(path ast.Path, def *ast.Definition, typ *ast.Type, sel ast.SelectionSet, v interface{}) ([]byte, bool) {
	obj, isObject := v.(map[string]interface{})
	if !isObject {
		c.errorf(path, "expected an object for %s", def.Name)
		return nullable(typ)
	}

	fields := graphql.CollectFields(c.ec.OperationContext, sel, []string{def.Name})
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(quote(field.Alias))
		buf.WriteByte(':')
		if field.Name == "__typename" {
			buf.Write(quote(def.Name))
			continue
		}
		raw, ok := c.complete(pathAt(path, ast.PathName(field.Alias)), field.Definition.Type, field.Selections, obj[field.Name])
		if !ok {
			return nullable(typ)
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), true
}

func scalarValue(name string, v interface{}) ([]byte, error) {
	switch name {
	case "Int":
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%v is not an Int", v)
		}
		i, err := int32Number(n)
		if err != nil {
			return nil, err
		}
		return strconv.AppendInt(nil, i, 10), nil
	case "Float":
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%v is not a Float", v)
		}
		return []byte(n.String()), nil
	case "String", "ID":
		switch s := v.(type) {
		case string:
			return quote(s), nil
		case json.Number:
			return quote(s.String()), nil
		}
		return nil, fmt.Errorf("%v is not a String", v)
	case "Boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%v is not a Boolean", v)
		}
		return strconv.AppendBool(nil, b), nil
	}
	return json.Marshal(v)
}

func nullable(typ *ast.Type) ([]byte, bool) {
	if typ != nil && typ.NonNull {
		return nil, false
	}
	return nullValue, true
}

func pathAt(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, 0, len(path)+1)
	out = append(out, path...)
	return append(out, elem)
}

func quote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

// int32Number accepts integral numbers inside the GraphQL Int range, which is
// a signed 32-bit integer.
func int32Number(n json.Number) (int64, error) {
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, fmt.Errorf("%s is not an Int", n)
		}
		i = int64(f)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, fmt.Errorf("%s overflows a signed 32-bit integer", n)
	}
	return i, nil
}

func intArg(args map[string]interface{}, name string) (int, error) {
	v, err := optionalIntArg(args, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("argument %s is required", name)
	}
	return *v, nil
}

func optionalIntArg(args map[string]interface{}, name string) (*int, error) {
	var num json.Number
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case int:
		num = json.Number(strconv.Itoa(v))
	case int32:
		num = json.Number(strconv.FormatInt(int64(v), 10))
	case int64:
		num = json.Number(strconv.FormatInt(v, 10))
	case float64:
		num = json.Number(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		num = v
	default:
		return nil, fmt.Errorf("argument %s: %v is not an Int", name, v)
	}
	i, err := int32Number(num)
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", name, err)
	}
	n := int(i)
	return &n, nil
}

func stringArg(args map[string]interface{}, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}
