package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pdv-service/internal/models"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column layouts are positional: the first row is a header and is skipped.
var (
	productColumns  = []string{"SKU", "Nome", "Preço", "Controla Estoque", "Estoque"}
	customerColumns = []string{"Nome", "Email", "Telefone", "Assinante"}
)

// RowError reports a row that could not be imported
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes a bulk import
type Result struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Importer performs bulk product and customer imports from spreadsheets
type Importer struct {
	store  *store.Store
	logger *zap.Logger
}

// NewImporter creates a new importer
func NewImporter(store *store.Store) *Importer {
	return &Importer{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ImportProductsXLSX imports products from an XLSX workbook
func (im *Importer) ImportProductsXLSX(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readXLSX(r)
	if err != nil {
		return nil, err
	}
	return im.importProducts(ctx, rows)
}

// ImportProductsCSV imports products from a CSV file
func (im *Importer) ImportProductsCSV(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return im.importProducts(ctx, rows)
}

// ImportCustomersXLSX imports customers from an XLSX workbook
func (im *Importer) ImportCustomersXLSX(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readXLSX(r)
	if err != nil {
		return nil, err
	}
	return im.importCustomers(ctx, rows)
}

// ImportCustomersCSV imports customers from a CSV file
func (im *Importer) ImportCustomersCSV(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return im.importCustomers(ctx, rows)
}

func (im *Importer) importProducts(ctx context.Context, rows [][]string) (*Result, error) {
	result := &Result{}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1

		product, err := parseProductRow(row)
		if err != nil {
			util.ImportRowsTotal.WithLabelValues("product", "error").Inc()
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if err := im.store.CreateProduct(ctx, &product); err != nil {
			util.ImportRowsTotal.WithLabelValues("product", "error").Inc()
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		util.ImportRowsTotal.WithLabelValues("product", "ok").Inc()
		result.Imported++
	}

	im.logger.Info("Product import finished",
		zap.Int("imported", result.Imported),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (im *Importer) importCustomers(ctx context.Context, rows [][]string) (*Result, error) {
	result := &Result{}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1

		customer, err := parseCustomerRow(row)
		if err != nil {
			util.ImportRowsTotal.WithLabelValues("customer", "error").Inc()
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if err := im.store.CreateCustomer(ctx, &customer); err != nil {
			util.ImportRowsTotal.WithLabelValues("customer", "error").Inc()
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		util.ImportRowsTotal.WithLabelValues("customer", "ok").Inc()
		result.Imported++
	}

	im.logger.Info("Customer import finished",
		zap.Int("imported", result.Imported),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func parseProductRow(row []string) (models.Product, error) {
	if len(row) < 3 {
		return models.Product{}, fmt.Errorf("expected at least 3 columns, got %d", len(row))
	}

	name := strings.TrimSpace(col(row, 1))
	if name == "" {
		return models.Product{}, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(col(row, 2)))
	if err != nil {
		return models.Product{}, fmt.Errorf("invalid price %q", col(row, 2))
	}
	if price.IsNegative() {
		return models.Product{}, fmt.Errorf("price must not be negative")
	}

	manageStock := parseBool(col(row, 3))

	stock := 0
	if raw := strings.TrimSpace(col(row, 4)); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return models.Product{}, fmt.Errorf("invalid stock %q", raw)
		}
	}

	return models.Product{
		SKU:         strings.TrimSpace(col(row, 0)),
		Name:        name,
		Price:       price,
		ManageStock: manageStock,
		Stock:       stock,
	}, nil
}

func parseCustomerRow(row []string) (models.Customer, error) {
	name := strings.TrimSpace(col(row, 0))
	if name == "" {
		return models.Customer{}, fmt.Errorf("name is required")
	}

	return models.Customer{
		Name:       name,
		Email:      strings.TrimSpace(col(row, 1)),
		Phone:      strings.TrimSpace(col(row, 2)),
		Subscriber: parseBool(col(row, 3)),
	}, nil
}

func col(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "sim", "yes", "s", "y":
		return true
	}
	return false
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// ProductTemplate builds a downloadable workbook with the product import
// header row.
func ProductTemplate() (*excelize.File, error) {
	return template(productColumns)
}

// CustomerTemplate builds a downloadable workbook with the customer import
// header row.
func CustomerTemplate() (*excelize.File, error) {
	return template(customerColumns)
}

func template(columns []string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	return f, nil
}
