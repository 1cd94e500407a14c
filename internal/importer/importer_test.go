package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseProductRow(t *testing.T) {
	product, err := parseProductRow([]string{"SKU-1", "Café 500g", "24.90", "sim", "12"})
	require.NoError(t, err)

	assert.Equal(t, "SKU-1", product.SKU)
	assert.Equal(t, "Café 500g", product.Name)
	assert.Equal(t, "24.90", product.Price.StringFixed(2))
	assert.True(t, product.ManageStock)
	assert.Equal(t, 12, product.Stock)
}

func TestParseProductRowOptionalColumns(t *testing.T) {
	product, err := parseProductRow([]string{"", "Serviço", "150.00"})
	require.NoError(t, err)

	assert.False(t, product.ManageStock)
	assert.Equal(t, 0, product.Stock)
}

func TestParseProductRowErrors(t *testing.T) {
	_, err := parseProductRow([]string{"SKU-1", "Café"})
	assert.Error(t, err)

	_, err = parseProductRow([]string{"SKU-1", "", "10.00"})
	assert.Error(t, err)

	_, err = parseProductRow([]string{"SKU-1", "Café", "abc"})
	assert.Error(t, err)

	_, err = parseProductRow([]string{"SKU-1", "Café", "-1.00"})
	assert.Error(t, err)

	_, err = parseProductRow([]string{"SKU-1", "Café", "10.00", "sim", "-3"})
	assert.Error(t, err)
}

func TestParseCustomerRow(t *testing.T) {
	customer, err := parseCustomerRow([]string{"Maria Silva", "maria@example.com", "11999990000", "sim"})
	require.NoError(t, err)

	assert.Equal(t, "Maria Silva", customer.Name)
	assert.Equal(t, "maria@example.com", customer.Email)
	assert.True(t, customer.Subscriber)

	_, err = parseCustomerRow([]string{""})
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("sim"))
	assert.True(t, parseBool("SIM"))
	assert.True(t, parseBool(" 1 "))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("yes"))
	assert.False(t, parseBool("não"))
	assert.False(t, parseBool(""))
	assert.False(t, parseBool("0"))
}

func TestReadCSVRaggedRows(t *testing.T) {
	raw := "SKU,Nome,Preço\nSKU-1,Café,24.90,sim,12\nSKU-2,Chá,9.90\n"

	rows, err := readCSV(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 5)
	assert.Len(t, rows[2], 3)
}

func TestReadXLSXRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"SKU", "Nome", "Preço"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"SKU-1", "Café", "24.90"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := readXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Café", rows[1][1])
}

func TestProductTemplateHeader(t *testing.T) {
	f, err := ProductTemplate()
	require.NoError(t, err)

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, productColumns, rows[0])
}

func TestCustomerTemplateHeader(t *testing.T) {
	f, err := CustomerTemplate()
	require.NoError(t, err)

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, customerColumns, rows[0])
}
