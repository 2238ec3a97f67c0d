package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream/upstreamtest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticBinder struct {
	port upstream.Port
}

func (b staticBinder) WithToken(string) upstream.Port { return b.port }
func (b staticBinder) WithTokenSource(upstream.TokenSource) upstream.Port { return b.port }

func testRouter(t *testing.T, port upstream.Port) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Access: config.Access{FrontendOrigin: "http://localhost:7171"}}
	return newRouter(cfg, staticBinder{port: port}, nil)
}

func inventoryPort() *upstreamtest.Port {
	return upstreamtest.New().
		With(upstream.ResourceProducts, map[string]interface{}{"id": 1, "nombre": "Chifle", "precio": 2, "stock": 5}).
		With(upstream.ResourceSupplies, map[string]interface{}{"id": 2, "nombre": "Sal", "stock": 1})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestExportRequiresCredential(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export/inventario", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportInventory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export/inventario", nil)
	req.Header.Set("Authorization", "Bearer caller")
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="inventario-`))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Resumen", "C2")
	require.NoError(t, err)
	assert.Equal(t, "10", value)
}

func TestExportErrors(t *testing.T) {
	cases := []struct {
		path   string
		port   *upstreamtest.Port
		status int
	}{
		{"/export/nomina", inventoryPort(), http.StatusNotFound},
		{"/export/productos-mas-vendidos?limite=abc", inventoryPort(), http.StatusBadRequest},
		{"/export/productos-mas-vendidos?limite=-2", inventoryPort(), http.StatusBadRequest},
		{"/export/ventas?fechaInicio=ayer", inventoryPort(), http.StatusBadRequest},
		{"/export/inventario", inventoryPort().FailCollection(upstream.ResourceProducts, upstream.Rejected(upstream.ResourceProducts, 500, "boom")), http.StatusBadGateway},
		{"/export/inventario", inventoryPort().FailCollection(upstream.ResourceProducts, upstream.Rejected(upstream.ResourceProducts, 401, "Unauthorized")), http.StatusUnauthorized},
		{"/export/inventario", inventoryPort().FailCollection(upstream.ResourceSupplies, upstream.Unavailable(upstream.ResourceSupplies, assert.AnError)), http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		req.Header.Set("token", "caller")
		w := httptest.NewRecorder()
		testRouter(t, c.port).ServeHTTP(w, req)
		assert.Equal(t, c.status, w.Code, c.path)
		assert.Contains(t, w.Body.String(), `"error"`, c.path)
	}
}

func TestGraphqlRemotePostIsBlocked(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ __typename }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.1.2.3:4000"
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGraphqlFromLoopback(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ reporteInventario { totalProductos valorInventario } }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer caller")
	req.RemoteAddr = "127.0.0.1:4000"
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"reporteInventario":{"totalProductos":1,"valorInventario":10}}}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t, inventoryPort()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
