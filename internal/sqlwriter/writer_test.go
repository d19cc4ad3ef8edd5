package sqlwriter

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleDataset() *types.Dataset {
	return &types.Dataset{
		Branch: types.Branch{
			Name:    "SUPERMERCADOS EL AHORRO",
			Address: "Av. Principal #123 - Madrid",
			TaxID:   "B12345678",
			Phone:   "910123456",
		},
		Employees: []types.Employee{{Code: "042", Name: "Lucía Fernández"}},
		Products: []types.Product{
			{Description: "Leche 1L", UnitPrice: dec("1.20")},
			{Description: "Jamón serrano", UnitPrice: dec("18")},
		},
		Tickets: []*types.Ticket{
			{
				Number:        "000123",
				Date:          "2024-03-14",
				Time:          "18:42",
				EmployeeCode:  "042",
				Subtotal:      dec("8.70"),
				Tax:           dec("0.87"),
				Total:         dec("9.57"),
				PaymentMethod: "TARJETA",
				Lines: []types.TicketLine{
					{Description: "Leche 1L", Quantity: dec("2"), Amount: dec("2.40"), UnitPrice: dec("1.20")},
					{Description: "Jamón serrano", Quantity: dec("0.350"), Amount: dec("6.3"), UnitPrice: dec("18")},
				},
			},
		},
	}
}

func generate(t *testing.T, ds *types.Dataset, opts GenerateOptions) string {
	t.Helper()
	out, err := GenerateWithOptions(ds, opts)
	require.NoError(t, err)
	return string(out)
}

func TestGenerate_FullScript(t *testing.T) {
	out, err := Generate(sampleDataset())
	require.NoError(t, err)
	script := string(out)

	assert.Contains(t, script, "CREATE DATABASE IF NOT EXISTS supermercado;\nUSE supermercado;\n")
	for _, table := range []string{"sucursal", "empleado", "producto", "ticket", "ticket_linea", "pago"} {
		assert.Contains(t, script, "CREATE TABLE IF NOT EXISTS "+table+" (")
		assert.Contains(t, script, "INSERT INTO "+table+" (")
	}

	assert.Contains(t, script,
		"('SUPERMERCADOS EL AHORRO', 'Av. Principal #123 - Madrid', 'B12345678', '910123456');")
	assert.Contains(t, script, "('042', 'Lucía Fernández');")
	assert.Contains(t, script, "('Leche 1L', 1.20),\n('Jamón serrano', 18.00);")
	assert.Contains(t, script,
		"('000123', '2024-03-14', '18:42', (SELECT id_empleado FROM empleado WHERE codigo_empleado = '042'), 1, 8.70, 0.87, 9.57);")
	assert.Contains(t, script,
		"((SELECT id_ticket FROM ticket WHERE numero_ticket = '000123'), (SELECT id_producto FROM producto WHERE descripcion = 'Jamón serrano'), 0.35, 6.30, 18.00);")
	assert.Contains(t, script,
		"((SELECT id_ticket FROM ticket WHERE numero_ticket = '000123'), 'TARJETA', NULL);")
}

func TestGenerate_TableOrder(t *testing.T) {
	script := generate(t, sampleDataset(), DefaultGenerateOptions())

	order := []string{
		"INSERT INTO sucursal",
		"INSERT INTO empleado",
		"INSERT INTO producto",
		"INSERT INTO ticket ",
		"INSERT INTO ticket_linea",
		"INSERT INTO pago",
	}
	prev := -1
	for _, stmt := range order {
		idx := strings.Index(script, stmt)
		require.NotEqual(t, -1, idx, stmt)
		assert.Greater(t, idx, prev, stmt)
		prev = idx
	}

	assert.Less(t, strings.LastIndex(script, "CREATE TABLE"), strings.Index(script, "INSERT INTO"))
}

func TestGenerate_EmptyBatchesOmitted(t *testing.T) {
	ds := &types.Dataset{Branch: types.Branch{Name: "Tienda"}}
	script := generate(t, ds, DefaultGenerateOptions())

	assert.Equal(t, 1, strings.Count(script, "INSERT INTO"))
	assert.Contains(t, script, "INSERT INTO sucursal")
	assert.NotContains(t, script, "VALUES\n;")
}

func TestGenerate_NullableTicketFields(t *testing.T) {
	ds := sampleDataset()
	ds.Tickets[0].Time = ""
	ds.Tickets[0].EmployeeCode = ""
	ds.Tickets[0].PaymentMethod = ""

	script := generate(t, ds, DefaultGenerateOptions())

	assert.Contains(t, script, "('000123', '2024-03-14', NULL, NULL, 1, 8.70, 0.87, 9.57);")
	assert.NotContains(t, script, "INSERT INTO pago")
}

func TestGenerate_EscapesQuotes(t *testing.T) {
	ds := sampleDataset()
	ds.Products = append(ds.Products, types.Product{Description: "Galletas d'Or", UnitPrice: dec("2.10")})
	ds.Tickets[0].Lines = append(ds.Tickets[0].Lines, types.TicketLine{
		Description: "Galletas d'Or", Quantity: dec("1"), Amount: dec("2.10"), UnitPrice: dec("2.10"),
	})
	ds.Employees[0].Name = "Ana O'Neill"

	script := generate(t, ds, DefaultGenerateOptions())

	assert.Contains(t, script, "('Galletas d''Or', 2.10)")
	assert.Contains(t, script, "WHERE descripcion = 'Galletas d''Or'")
	assert.Contains(t, script, "('042', 'Ana O''Neill')")
	assert.NotContains(t, script, "d'Or")
}

func TestGenerate_WithoutPreludeOrSchema(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.IncludeDatabasePrelude = false
	opts.IncludeSchema = false

	script := generate(t, sampleDataset(), opts)

	assert.NotContains(t, script, "CREATE DATABASE")
	assert.NotContains(t, script, "CREATE TABLE")
	assert.True(t, strings.HasPrefix(script, "-- ="))
	assert.Contains(t, script, "INSERT INTO ticket_linea")
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(nil)
	assert.Error(t, err)

	opts := DefaultGenerateOptions()
	opts.DatabaseName = ""
	_, err = GenerateWithOptions(sampleDataset(), opts)
	assert.ErrorContains(t, err, "database name")
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in        string
		backslash bool
		want      string
	}{
		{"Leche", true, "'Leche'"},
		{"d'Or", true, "'d''Or'"},
		{"''", false, "''''''"},
		{`C:\tmp`, true, `'C:\\tmp'`},
		{`C:\tmp`, false, `'C:\tmp'`},
		{"", true, "''"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteString(tt.in, tt.backslash), tt.in)
	}
}
