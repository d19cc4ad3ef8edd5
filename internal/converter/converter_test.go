package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ginjaninja78/receipts-to-sql/internal/config"
	"github.com/ginjaninja78/receipts-to-sql/internal/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receipt renders a well-formed receipt with generated cashier and items.
func receipt(faker *gofakeit.Faker, number string, items int) string {
	var b strings.Builder

	b.WriteString("        SUPERMERCADOS EL AHORRO\n")
	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "Ticket: %s\n", number)
	fmt.Fprintf(&b, "Fecha: %02d/03/2024   Hora: %02d:%02d\n", faker.Number(1, 28), faker.Number(8, 21), faker.Number(0, 59))
	fmt.Fprintf(&b, "Cajero: %s - %s %s\n", faker.Numerify("0##"), faker.FirstName(), faker.LastName())
	b.WriteString("----------------------------------------\n")
	b.WriteString("CANT  DESCRIPCIÓN              IMPORTE\n")
	b.WriteString("----------------------------------------\n")

	subtotal := decimal.Zero
	for i := 0; i < items; i++ {
		amount := decimal.NewFromInt(int64(faker.Number(50, 2500))).Shift(-2)
		subtotal = subtotal.Add(amount)
		fmt.Fprintf(&b, "%-5d %-24s %s€\n", faker.Number(1, 5), faker.Fruit(), amount.StringFixed(2))
	}

	tax := subtotal.Mul(decimal.NewFromFloat(0.1)).Round(2)
	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "SUBTOTAL                       %s€\n", subtotal.StringFixed(2))
	fmt.Fprintf(&b, "IVA (10%%)                      %s€\n", tax.StringFixed(2))
	fmt.Fprintf(&b, "TOTAL A PAGAR                  %s€\n", subtotal.Add(tax).StringFixed(2))
	b.WriteString("----------------------------------------\n")
	fmt.Fprintf(&b, "FORMA DE PAGO: %s\n", faker.RandomString([]string{"EFECTIVO", "TARJETA"}))

	return b.String()
}

func writeReceipt(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func newConverter(t *testing.T, inputDir string) (*Converter, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.InputDir = inputDir
	cfg.OutputDir = t.TempDir()
	return New(cfg, zerolog.Nop()), cfg
}

func TestRun_GeneratedReceipts(t *testing.T) {
	faker := gofakeit.New(42)
	dir := t.TempDir()

	const accepted = 8
	for i := 1; i <= accepted; i++ {
		writeReceipt(t, dir, fmt.Sprintf("t%03d.txt", i), receipt(faker, fmt.Sprintf("%06d", i), faker.Number(1, 6)))
	}
	// No total: rejected.
	writeReceipt(t, dir, "t900.txt", "Ticket: 000900\nFecha: 01/03/2024\nSUBTOTAL 1.00€\nIVA 0.10€\n")
	// Same number as t001.txt: dropped.
	writeReceipt(t, dir, "t901.txt", receipt(faker, "000001", 1))
	// Not a receipt.
	writeReceipt(t, dir, "readme.md", "Ticket: 123")

	conv, cfg := newConverter(t, dir)
	result := conv.Run(context.Background())

	require.NoError(t, result.Error)
	require.True(t, result.Success)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "InsertUnderlineTicket.sql"), result.OutputFile)

	assert.Equal(t, 10, result.Stats.Documents)
	assert.Equal(t, accepted, result.Stats.Tickets)
	assert.Equal(t, 1, result.Stats.Rejected)
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, accepted, result.Stats.Payments)
	assert.Len(t, result.Stats.Rejections, 2)
	assert.Equal(t, "t900.txt", result.Stats.Rejections[0].Source)
	assert.Equal(t, "t901.txt", result.Stats.Rejections[1].Source)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	script := string(data)

	assert.Contains(t, script, "CREATE DATABASE IF NOT EXISTS supermercado;")
	assert.Contains(t, script, "'SUPERMERCADOS EL AHORRO'")
	for i := 1; i <= accepted; i++ {
		assert.Contains(t, script, fmt.Sprintf("('%06d', '2024-03-", i))
	}
	assert.NotContains(t, script, "000900")
	assert.Equal(t, 1, strings.Count(script, "('000001', "))
}

func TestBuild_ReferentialCompleteness(t *testing.T) {
	faker := gofakeit.New(7)
	dir := t.TempDir()
	for i := 1; i <= 20; i++ {
		writeReceipt(t, dir, fmt.Sprintf("r%02d.txt", i), receipt(faker, fmt.Sprintf("%06d", 100+i), faker.Number(0, 8)))
	}

	conv, _ := newConverter(t, dir)
	ds, stats, err := conv.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, validation.CheckDataset(ds))
	assert.Equal(t, 20, stats.Tickets)
	assert.Equal(t, ds.LineCount(), stats.Lines)

	products := make(map[string]bool)
	for _, p := range ds.Products {
		assert.False(t, products[p.Description], "product %q registered twice", p.Description)
		products[p.Description] = true
	}
	employees := make(map[string]bool)
	for _, e := range ds.Employees {
		assert.False(t, employees[e.Code], "employee %s registered twice", e.Code)
		employees[e.Code] = true
	}
}

func TestBuild_FirstReceiptWinsByName(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "b.txt", "Ticket: 2\nFecha: 02/03/2024\nCajero: 042 - Otro Nombre\n"+
		"SUBTOTAL 1.00€\nIVA 0.10€\nTOTAL A PAGAR 1.10€\n")
	writeReceipt(t, dir, "a.txt", "Ticket: 1\nFecha: 01/03/2024\nCajero: 042 - Lucía Fernández\n"+
		"SUBTOTAL 1.00€\nIVA 0.10€\nTOTAL A PAGAR 1.10€\n")

	conv, _ := newConverter(t, dir)
	ds, _, err := conv.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Employees, 1)
	assert.Equal(t, "Lucía Fernández", ds.Employees[0].Name)
	assert.Equal(t, "1", ds.Tickets[0].Number)
}

func TestRun_NoDocuments(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "notes.md", "nothing here")

	conv, cfg := newConverter(t, dir)
	result := conv.Run(context.Background())

	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, ErrNoDocuments))
	assert.Empty(t, result.OutputFile)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_MissingInputDir(t *testing.T) {
	conv, _ := newConverter(t, filepath.Join(t.TempDir(), "missing"))
	result := conv.Run(context.Background())

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, os.ErrNotExist)
}

func TestRun_AllRejectedStillWritesSchema(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "bad.txt", "Ticket: 5\n")

	conv, _ := newConverter(t, dir)
	result := conv.Run(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, 0, result.Stats.Tickets)
	assert.Equal(t, 1, result.Stats.Rejected)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS pago")
	assert.Equal(t, 1, strings.Count(string(data), "INSERT INTO"))
}

func TestBuild_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "a.txt", "Ticket: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv, _ := newConverter(t, dir)
	_, _, err := conv.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SkipDatabasePrelude(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "a.txt", receipt(gofakeit.New(1), "000001", 2))

	conv, cfg := newConverter(t, dir)
	cfg.SkipDatabasePrelude = true
	cfg.OutputNameFormat = "tickets_{date}"

	result := conv.Run(context.Background())
	require.True(t, result.Success)
	assert.True(t, strings.HasSuffix(result.OutputFile, ".sql"))

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "CREATE DATABASE")
}

func TestBuild_RejectedReceiptFixesEmployeeAndPrice(t *testing.T) {
	dir := t.TempDir()
	// Sorts first but has no totals, so it is rejected; its cashier name
	// and unit price still become the stored values.
	writeReceipt(t, dir, "a.txt", "Ticket: 1\nCajero: 042 - Ana\n"+
		"CANT  DESCRIPCIÓN\n----\n2 Leche 2.40€\n")
	writeReceipt(t, dir, "b.txt", "Ticket: 2\nFecha: 02/03/2024\nCajero: 042 - Bea\n"+
		"CANT  DESCRIPCIÓN\n----\n1 Leche 1.50€\n----\n"+
		"SUBTOTAL 1.50€\nIVA 0.15€\nTOTAL A PAGAR 1.65€\n")

	conv, _ := newConverter(t, dir)
	ds, stats, err := conv.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Tickets)
	assert.Equal(t, 1, stats.Employees)
	assert.Equal(t, 1, stats.Products)

	require.Len(t, ds.Employees, 1)
	assert.Equal(t, "Ana", ds.Employees[0].Name)
	require.Len(t, ds.Products, 1)
	assert.True(t, decimal.RequireFromString("1.20").Equal(ds.Products[0].UnitPrice))

	// The accepted line keeps its own derived price.
	require.Len(t, ds.Tickets[0].Lines, 1)
	assert.True(t, decimal.RequireFromString("1.50").Equal(ds.Tickets[0].Lines[0].UnitPrice))
}

func TestBuild_TotalsDirectlyBelowItems(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "a.txt", "Ticket: 000777\nFecha: 01/03/2024   Hora: 12:00\nCajero: 042 - Ana\n"+
		"CANT  DESCRIPCIÓN              IMPORTE\n"+
		"========================================\n"+
		"2     Leche 1L                  2.40€\n"+
		"SUBTOTAL                        2.40€\n"+
		"IVA (10%)                       0.24€\n"+
		"TOTAL A PAGAR                   2.64€\n")

	conv, _ := newConverter(t, dir)
	ds, stats, err := conv.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Rejected)
	require.Len(t, ds.Tickets, 1)
	assert.Equal(t, "000777", ds.Tickets[0].Number)
	assert.Len(t, ds.Tickets[0].Lines, 1)
}

func TestBuild_TicketWithoutPaymentHasNoPaymentRow(t *testing.T) {
	dir := t.TempDir()
	writeReceipt(t, dir, "a.txt", receipt(gofakeit.New(3), "000001", 1))
	writeReceipt(t, dir, "b.txt", "Ticket: 000002\nFecha: 02/03/2024\n"+
		"SUBTOTAL 1.00€\nIVA 0.10€\nTOTAL A PAGAR 1.10€\n")

	conv, _ := newConverter(t, dir)
	ds, stats, err := conv.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Tickets)
	assert.Equal(t, 1, stats.Payments)

	payments := ds.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "000001", payments[0].TicketNumber)

	script, err := conv.Generate(ds)
	require.NoError(t, err)
	// No lines and no payment reference ticket 000002.
	assert.NotContains(t, string(script), "numero_ticket = '000002'")
	assert.Contains(t, string(script), "numero_ticket = '000001'")
}
