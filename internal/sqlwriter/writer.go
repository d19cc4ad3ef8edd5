// =============================================================================
// Receipt-to-SQL Converter - SQL Writer Module
// =============================================================================
//
// This module serializes a dataset as a MySQL script: schema creation
// followed by batched INSERT statements.
//
// SCRIPT STRUCTURE:
//
//   CREATE DATABASE IF NOT EXISTS supermercado;    -- optional prelude
//   USE supermercado;
//   CREATE TABLE IF NOT EXISTS sucursal (...);     -- six tables
//   ...
//   INSERT INTO sucursal (...) VALUES (...);       -- exactly one branch
//   INSERT INTO empleado (...) VALUES (...), ...;  -- one batch per table
//   INSERT INTO producto ...
//   INSERT INTO ticket ...        -- employee via (SELECT ... codigo_empleado)
//   INSERT INTO ticket_linea ...  -- ticket/product via sub-queries
//   INSERT INTO pago ...          -- autorizacion always NULL
//
// Foreign keys are resolved in the database by sub-queries on natural keys,
// so the script does not depend on generated identifiers. A batch with no
// rows is omitted, since "VALUES ;" is not valid SQL.
//
// =============================================================================

package sqlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for script generation.
type GenerateOptions struct {
	// DatabaseName is used by the CREATE DATABASE / USE prelude.
	DatabaseName string

	// IncludeDatabasePrelude emits CREATE DATABASE and USE.
	// Default: true
	IncludeDatabasePrelude bool

	// IncludeSchema emits the CREATE TABLE statements.
	// Default: true
	IncludeSchema bool

	// EscapeBackslashes doubles backslashes in string literals, which MySQL
	// otherwise reads as escape characters.
	// Default: true
	EscapeBackslashes bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		DatabaseName:           "supermercado",
		IncludeDatabasePrelude: true,
		IncludeSchema:          true,
		EscapeBackslashes:      true,
	}
}

// BranchID is the identifier the single branch receives on insert.
const BranchID = 1

// =============================================================================
// SCHEMA
// =============================================================================

const schemaSQL = `CREATE TABLE IF NOT EXISTS sucursal (
    id_sucursal INT AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(100) NOT NULL,
    direccion VARCHAR(200),
    cif VARCHAR(20),
    telefono VARCHAR(15)
);

CREATE TABLE IF NOT EXISTS empleado (
    id_empleado INT AUTO_INCREMENT PRIMARY KEY,
    codigo_empleado VARCHAR(10) UNIQUE NOT NULL,
    nombre_completo VARCHAR(100) NOT NULL
);

CREATE TABLE IF NOT EXISTS producto (
    id_producto INT AUTO_INCREMENT PRIMARY KEY,
    descripcion VARCHAR(100) UNIQUE NOT NULL,
    precio_unitario DECIMAL(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket (
    id_ticket INT AUTO_INCREMENT PRIMARY KEY,
    numero_ticket VARCHAR(20) UNIQUE NOT NULL,
    fecha DATE NOT NULL,
    hora TIME NULL,
    id_empleado INT NULL,
    id_sucursal INT NOT NULL,
    subtotal DECIMAL(10,2) NOT NULL,
    iva DECIMAL(10,2) NOT NULL,
    total DECIMAL(10,2) NOT NULL,
    FOREIGN KEY (id_empleado) REFERENCES empleado(id_empleado),
    FOREIGN KEY (id_sucursal) REFERENCES sucursal(id_sucursal)
);

CREATE TABLE IF NOT EXISTS ticket_linea (
    id_linea INT AUTO_INCREMENT PRIMARY KEY,
    id_ticket INT NOT NULL,
    id_producto INT NOT NULL,
    cantidad DECIMAL(10,3) NOT NULL,
    importe_linea DECIMAL(10,2) NOT NULL,
    precio_unitario DECIMAL(10,2) NOT NULL,
    FOREIGN KEY (id_ticket) REFERENCES ticket(id_ticket),
    FOREIGN KEY (id_producto) REFERENCES producto(id_producto)
);

CREATE TABLE IF NOT EXISTS pago (
    id_pago INT AUTO_INCREMENT PRIMARY KEY,
    id_ticket INT NOT NULL,
    forma_pago VARCHAR(20) NOT NULL,
    autorizacion VARCHAR(50),
    FOREIGN KEY (id_ticket) REFERENCES ticket(id_ticket)
);

`

// =============================================================================
// SCRIPT GENERATION
// =============================================================================

// Generate serializes the dataset with the default options.
func Generate(ds *types.Dataset) ([]byte, error) {
	return GenerateWithOptions(ds, DefaultGenerateOptions())
}

// GenerateWithOptions serializes the dataset with custom options.
func GenerateWithOptions(ds *types.Dataset, options GenerateOptions) ([]byte, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is nil")
	}
	if options.IncludeDatabasePrelude && options.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required for the prelude")
	}

	w := &scriptWriter{options: options}

	if options.IncludeDatabasePrelude || options.IncludeSchema {
		w.banner(fmt.Sprintf("BASE DE DATOS: %s", strings.ToUpper(options.DatabaseName)))
	}
	if options.IncludeDatabasePrelude {
		fmt.Fprintf(&w.buf, "CREATE DATABASE IF NOT EXISTS %s;\n", options.DatabaseName)
		fmt.Fprintf(&w.buf, "USE %s;\n\n", options.DatabaseName)
	}
	if options.IncludeSchema {
		w.buf.WriteString(schemaSQL)
	}

	w.banner("INSERCIÓN DE DATOS DESDE FACTURAS")

	w.insert("sucursal", "nombre, direccion, cif, telefono", []string{w.branchRow(ds.Branch)})
	w.insert("empleado", "codigo_empleado, nombre_completo", w.employeeRows(ds.Employees))
	w.insert("producto", "descripcion, precio_unitario", w.productRows(ds.Products))
	w.insert("ticket", "numero_ticket, fecha, hora, id_empleado, id_sucursal, subtotal, iva, total", w.ticketRows(ds.Tickets))
	w.insert("ticket_linea", "id_ticket, id_producto, cantidad, importe_linea, precio_unitario", w.lineRows(ds.Tickets))
	w.insert("pago", "id_ticket, forma_pago, autorizacion", w.paymentRows(ds.Payments()))

	return w.buf.Bytes(), nil
}

// =============================================================================
// ROW BUILDING
// =============================================================================

type scriptWriter struct {
	buf     bytes.Buffer
	options GenerateOptions
}

func (w *scriptWriter) banner(title string) {
	w.buf.WriteString("-- =============================================\n")
	fmt.Fprintf(&w.buf, "-- %s\n", title)
	w.buf.WriteString("-- =============================================\n\n")
}

// insert writes one batched INSERT. Empty batches are skipped.
func (w *scriptWriter) insert(table, columns string, rows []string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(&w.buf, "INSERT INTO %s (%s) VALUES\n", table, columns)
	w.buf.WriteString(strings.Join(rows, ",\n"))
	w.buf.WriteString(";\n\n")
}

func (w *scriptWriter) branchRow(b types.Branch) string {
	return fmt.Sprintf("(%s, %s, %s, %s)", w.quote(b.Name), w.quote(b.Address), w.quote(b.TaxID), w.quote(b.Phone))
}

func (w *scriptWriter) employeeRows(employees []types.Employee) []string {
	rows := make([]string, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, fmt.Sprintf("(%s, %s)", w.quote(e.Code), w.quote(e.Name)))
	}
	return rows
}

func (w *scriptWriter) productRows(products []types.Product) []string {
	rows := make([]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, fmt.Sprintf("(%s, %s)", w.quote(p.Description), p.UnitPrice.StringFixed(2)))
	}
	return rows
}

func (w *scriptWriter) ticketRows(tickets []*types.Ticket) []string {
	rows := make([]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, fmt.Sprintf("(%s, %s, %s, %s, %d, %s, %s, %s)",
			w.quote(t.Number),
			w.quote(t.Date),
			w.nullable(t.Time),
			w.employeeRef(t.EmployeeCode),
			BranchID,
			t.Subtotal.StringFixed(2),
			t.Tax.StringFixed(2),
			t.Total.StringFixed(2),
		))
	}
	return rows
}

func (w *scriptWriter) lineRows(tickets []*types.Ticket) []string {
	var rows []string
	for _, t := range tickets {
		for _, line := range t.Lines {
			rows = append(rows, fmt.Sprintf("(%s, %s, %s, %s, %s)",
				w.ticketRef(t.Number),
				w.productRef(line.Description),
				line.Quantity.String(),
				line.Amount.StringFixed(2),
				line.UnitPrice.StringFixed(2),
			))
		}
	}
	return rows
}

func (w *scriptWriter) paymentRows(payments []types.Payment) []string {
	rows := make([]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, fmt.Sprintf("(%s, %s, %s)",
			w.ticketRef(p.TicketNumber),
			w.quote(p.Method),
			w.nullable(p.Authorization),
		))
	}
	return rows
}

// =============================================================================
// LITERALS AND REFERENCES
// =============================================================================

func (w *scriptWriter) employeeRef(code string) string {
	if code == "" {
		return "NULL"
	}
	return fmt.Sprintf("(SELECT id_empleado FROM empleado WHERE codigo_empleado = %s)", w.quote(code))
}

func (w *scriptWriter) productRef(description string) string {
	return fmt.Sprintf("(SELECT id_producto FROM producto WHERE descripcion = %s)", w.quote(description))
}

func (w *scriptWriter) ticketRef(number string) string {
	return fmt.Sprintf("(SELECT id_ticket FROM ticket WHERE numero_ticket = %s)", w.quote(number))
}

func (w *scriptWriter) nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return w.quote(s)
}

func (w *scriptWriter) quote(s string) string {
	return QuoteString(s, w.options.EscapeBackslashes)
}

// QuoteString renders s as a single-quoted SQL literal, doubling embedded
// single quotes.
func QuoteString(s string, escapeBackslashes bool) string {
	if escapeBackslashes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
