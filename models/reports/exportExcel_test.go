package reports

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportSalesWorkbook(t *testing.T) {
	f, err := ExportReport(context.Background(), salesFixture(), "ventas", ExportQuery{})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumen", "Por producto", "Por dia"}, f.GetSheetList())

	header, err := f.GetCellValue("Resumen", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Total ventas", header)
	total, err := f.GetCellValue("Resumen", "A2")
	require.NoError(t, err)
	assert.Equal(t, "157.75", total)

	first, err := f.GetCellValue("Por producto", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Chifle dulce", first)

	rows, err := f.GetRows("Por dia")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, noDateKey, rows[3][0])
}

func TestExportProductionWorkbook(t *testing.T) {
	f, err := ExportReport(context.Background(), productionFixture(), "produccion", ExportQuery{})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumen", "Por producto", "Insumos", "Por dia"}, f.GetSheetList())
	amount, err := f.GetCellValue("Insumos", "C2")
	require.NoError(t, err)
	assert.Equal(t, "5.5", amount)
}

func TestExportTopSellingHonorsLimit(t *testing.T) {
	f, err := ExportReport(context.Background(), salesFixture(), "productos-mas-vendidos", ExportQuery{Limite: ptr(1)})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Mas vendidos")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"8", "Chifle dulce", "6"}, rows[1])
}

func TestExportEveryReportName(t *testing.T) {
	port := salesFixture()
	for _, name := range ExportableReports {
		f, err := ExportReport(context.Background(), port, name, ExportQuery{})
		require.NoError(t, err, name)
		assert.NotEmpty(t, f.GetSheetList(), name)
		_ = f.Close()
	}
}

func TestExportUnknownReport(t *testing.T) {
	port := salesFixture()
	f, err := ExportReport(context.Background(), port, "nomina", ExportQuery{})
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrUnknownReport)
	assert.Zero(t, port.CollectionCalls(upstream.ResourceOrders))
}

func TestExportPropagatesUpstreamErrors(t *testing.T) {
	port := salesFixture().FailCollection(upstream.ResourceOrders, upstream.Unavailable(upstream.ResourceOrders, context.DeadlineExceeded))
	_, err := ExportReport(context.Background(), port, "ventas", ExportQuery{})
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestWriteWorkbookFailsOnInvalidSheetName(t *testing.T) {
	f, err := writeWorkbook([]sheet{
		{name: "Resumen", headers: []string{"Total"}, rows: [][]any{{1}}},
		{name: "Por:dia", headers: []string{"Fecha"}},
	})
	require.Error(t, err)
	assert.Nil(t, f)
}
