// =============================================================================
// Receipt-to-SQL Converter - SQLite Store
// =============================================================================
//
// This module loads a dataset directly into a SQLite database, as an
// alternative to running the generated MySQL script by hand.
//
// LOAD SEMANTICS:
//   - The schema mirrors the script's six tables, in SQLite syntax.
//   - The whole dataset is loaded in one transaction; any failure rolls back.
//   - Loading is idempotent on natural keys: employees, products and tickets
//     that already exist are left untouched, and the lines and payment of an
//     existing ticket are not inserted again.
//   - Foreign keys are enforced and resolved by natural-key sub-queries,
//     exactly like the script.
//
// =============================================================================

package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// =============================================================================
// SCHEMA
// =============================================================================

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sucursal (
		id_sucursal INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL,
		direccion TEXT,
		cif TEXT,
		telefono TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS empleado (
		id_empleado INTEGER PRIMARY KEY AUTOINCREMENT,
		codigo_empleado TEXT UNIQUE NOT NULL,
		nombre_completo TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS producto (
		id_producto INTEGER PRIMARY KEY AUTOINCREMENT,
		descripcion TEXT UNIQUE NOT NULL,
		precio_unitario NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticket (
		id_ticket INTEGER PRIMARY KEY AUTOINCREMENT,
		numero_ticket TEXT UNIQUE NOT NULL,
		fecha TEXT NOT NULL,
		hora TEXT,
		id_empleado INTEGER REFERENCES empleado(id_empleado),
		id_sucursal INTEGER NOT NULL REFERENCES sucursal(id_sucursal),
		subtotal NUMERIC NOT NULL,
		iva NUMERIC NOT NULL,
		total NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_linea (
		id_linea INTEGER PRIMARY KEY AUTOINCREMENT,
		id_ticket INTEGER NOT NULL REFERENCES ticket(id_ticket),
		id_producto INTEGER NOT NULL REFERENCES producto(id_producto),
		cantidad NUMERIC NOT NULL,
		importe_linea NUMERIC NOT NULL,
		precio_unitario NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pago (
		id_pago INTEGER PRIMARY KEY AUTOINCREMENT,
		id_ticket INTEGER NOT NULL REFERENCES ticket(id_ticket),
		forma_pago TEXT NOT NULL,
		autorizacion TEXT
	)`,
}

const (
	insertBranch = `INSERT OR IGNORE INTO sucursal (id_sucursal, nombre, direccion, cif, telefono)
		VALUES (?, ?, ?, ?, ?)`
	insertEmployee = `INSERT OR IGNORE INTO empleado (codigo_empleado, nombre_completo) VALUES (?, ?)`
	insertProduct  = `INSERT OR IGNORE INTO producto (descripcion, precio_unitario) VALUES (?, ?)`
	insertTicket   = `INSERT OR IGNORE INTO ticket
		(numero_ticket, fecha, hora, id_empleado, id_sucursal, subtotal, iva, total)
		VALUES (?, ?, ?, (SELECT id_empleado FROM empleado WHERE codigo_empleado = ?), ?, ?, ?, ?)`
	insertLine = `INSERT INTO ticket_linea (id_ticket, id_producto, cantidad, importe_linea, precio_unitario)
		VALUES (
			(SELECT id_ticket FROM ticket WHERE numero_ticket = ?),
			(SELECT id_producto FROM producto WHERE descripcion = ?),
			?, ?, ?)`
	insertPayment = `INSERT INTO pago (id_ticket, forma_pago, autorizacion)
		VALUES ((SELECT id_ticket FROM ticket WHERE numero_ticket = ?), ?, ?)`
)

// BranchID is the fixed identifier of the single branch.
const BranchID = 1

// Tables lists the tables of the schema in dependency order.
var Tables = []string{"sucursal", "empleado", "producto", "ticket", "ticket_linea", "pago"}

// =============================================================================
// STORE
// =============================================================================

// Store wraps a SQLite database holding the relational model.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// LoadStats counts the rows a Load inserted.
type LoadStats struct {
	Employees int
	Products  int
	Tickets   int
	Lines     int
	Payments  int

	// SkippedTickets counts tickets already present in the database.
	SkippedTickets int
}

// Open opens (creating if needed) the database at path with foreign keys
// enforced. Use ":memory:" for a throwaway database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Load inserts the dataset in a single transaction. The schema must exist.
func (s *Store) Load(ctx context.Context, ds *types.Dataset) (LoadStats, error) {
	var stats LoadStats
	if ds == nil {
		return stats, fmt.Errorf("dataset is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertBranch,
		BranchID, ds.Branch.Name, ds.Branch.Address, ds.Branch.TaxID, ds.Branch.Phone); err != nil {
		return stats, fmt.Errorf("failed to insert branch: %w", err)
	}

	for _, e := range ds.Employees {
		n, err := execCount(ctx, tx, insertEmployee, e.Code, e.Name)
		if err != nil {
			return stats, fmt.Errorf("failed to insert employee %s: %w", e.Code, err)
		}
		stats.Employees += n
	}

	for _, p := range ds.Products {
		n, err := execCount(ctx, tx, insertProduct, p.Description, p.UnitPrice.StringFixed(2))
		if err != nil {
			return stats, fmt.Errorf("failed to insert product %q: %w", p.Description, err)
		}
		stats.Products += n
	}

	for _, t := range ds.Tickets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, err := execCount(ctx, tx, insertTicket,
			t.Number, t.Date, nullString(t.Time), nullString(t.EmployeeCode), BranchID,
			t.Subtotal.StringFixed(2), t.Tax.StringFixed(2), t.Total.StringFixed(2))
		if err != nil {
			return stats, fmt.Errorf("failed to insert ticket %s: %w", t.Number, err)
		}
		if n == 0 {
			stats.SkippedTickets++
			s.log.Debug().Str("ticket", t.Number).Msg("ticket already loaded, skipping")
			continue
		}
		stats.Tickets++

		for _, l := range t.Lines {
			if _, err := tx.ExecContext(ctx, insertLine,
				t.Number, l.Description, l.Quantity.String(), l.Amount.StringFixed(2), l.UnitPrice.StringFixed(2)); err != nil {
				return stats, fmt.Errorf("failed to insert line %q of ticket %s: %w", l.Description, t.Number, err)
			}
			stats.Lines++
		}

		if t.PaymentMethod != "" {
			if _, err := tx.ExecContext(ctx, insertPayment, t.Number, t.PaymentMethod, nil); err != nil {
				return stats, fmt.Errorf("failed to insert payment of ticket %s: %w", t.Number, err)
			}
			stats.Payments++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stats, nil
}

// Count returns the number of rows in one of the schema tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if !isTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
