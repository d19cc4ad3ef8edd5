// =============================================================================
// Receipt-to-SQL Converter - XLSX Exporter
// =============================================================================
//
// This module writes a dataset as an Excel workbook, one worksheet per table,
// so the extracted model can be reviewed before the SQL script is loaded.
//
// WORKBOOK STRUCTURE:
//
//   | Sheet        | Columns                                                        |
//   |--------------|----------------------------------------------------------------|
//   | sucursal     | nombre, direccion, cif, telefono                               |
//   | empleado     | codigo_empleado, nombre_completo                               |
//   | producto     | descripcion, precio_unitario                                   |
//   | ticket       | numero_ticket, fecha, hora, codigo_empleado, subtotal, iva, total |
//   | ticket_linea | numero_ticket, descripcion, cantidad, importe_linea, precio_unitario |
//   | pago         | numero_ticket, forma_pago, autorizacion                        |
//
// References use natural keys rather than generated ids. The first row of each
// sheet is a bold header row; amounts are written as numbers.
//
// =============================================================================

package xlsxexport

import (
	"fmt"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET DEFINITIONS
// =============================================================================

// Sheet is one worksheet of the export.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// Sheet names, in workbook order.
const (
	SheetBranch   = "sucursal"
	SheetEmployee = "empleado"
	SheetProduct  = "producto"
	SheetTicket   = "ticket"
	SheetLine     = "ticket_linea"
	SheetPayment  = "pago"
)

const columnWidth = 18

// Sheets lays the dataset out as worksheets.
func Sheets(ds *types.Dataset) []Sheet {
	branch := Sheet{
		Name:    SheetBranch,
		Columns: []string{"nombre", "direccion", "cif", "telefono"},
		Rows:    [][]interface{}{{ds.Branch.Name, ds.Branch.Address, ds.Branch.TaxID, ds.Branch.Phone}},
	}

	employees := Sheet{Name: SheetEmployee, Columns: []string{"codigo_empleado", "nombre_completo"}}
	for _, e := range ds.Employees {
		employees.Rows = append(employees.Rows, []interface{}{e.Code, e.Name})
	}

	products := Sheet{Name: SheetProduct, Columns: []string{"descripcion", "precio_unitario"}}
	for _, p := range ds.Products {
		products.Rows = append(products.Rows, []interface{}{p.Description, number(p.UnitPrice)})
	}

	tickets := Sheet{
		Name:    SheetTicket,
		Columns: []string{"numero_ticket", "fecha", "hora", "codigo_empleado", "subtotal", "iva", "total"},
	}
	lines := Sheet{
		Name:    SheetLine,
		Columns: []string{"numero_ticket", "descripcion", "cantidad", "importe_linea", "precio_unitario"},
	}
	for _, t := range ds.Tickets {
		tickets.Rows = append(tickets.Rows, []interface{}{
			t.Number, t.Date, t.Time, t.EmployeeCode,
			number(t.Subtotal), number(t.Tax), number(t.Total),
		})
		for _, l := range t.Lines {
			lines.Rows = append(lines.Rows, []interface{}{
				t.Number, l.Description, number(l.Quantity), number(l.Amount), number(l.UnitPrice),
			})
		}
	}

	payments := Sheet{Name: SheetPayment, Columns: []string{"numero_ticket", "forma_pago", "autorizacion"}}
	for _, p := range ds.Payments() {
		payments.Rows = append(payments.Rows, []interface{}{p.TicketNumber, p.Method, p.Authorization})
	}

	return []Sheet{branch, employees, products, tickets, lines, payments}
}

// =============================================================================
// WORKBOOK WRITING
// =============================================================================

// Export writes the dataset to an XLSX workbook at path.
func Export(ds *types.Dataset, path string) error {
	if ds == nil {
		return fmt.Errorf("dataset is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range Sheets(ds) {
		// The new workbook starts with a default sheet; reuse it for the first table.
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	header := make([]interface{}, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of sheet %s: %w", sheet.Name, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(sheet.Columns))
	if err != nil {
		return fmt.Errorf("failed to resolve last column of sheet %s: %w", sheet.Name, err)
	}
	if err := f.SetCellStyle(sheet.Name, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of sheet %s: %w", sheet.Name, err)
	}
	if err := f.SetColWidth(sheet.Name, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("failed to size columns of sheet %s: %w", sheet.Name, err)
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", i+2, sheet.Name, err)
		}
	}
	return nil
}

func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
