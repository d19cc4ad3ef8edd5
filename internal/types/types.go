// =============================================================================
// Receipt-to-SQL Converter - Shared Types
// =============================================================================
//
// This package contains the entities shared by the pipeline stages. Keeping
// them here avoids import cycles between:
//   - extractor   (produces Tickets)
//   - registry    (produces Employees and Products)
//   - validation  (checks Tickets and Datasets)
//   - sqlwriter, xlsxexport, sqlitestore (consume Datasets)
//
// All entities are built once per run and never mutated once serialization
// begins.
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

// Branch is the single store location every ticket belongs to.
// It is not derived from input; exactly one exists per dataset.
type Branch struct {
	Name    string
	Address string
	TaxID   string
	Phone   string
}

// Employee is a cashier identified by the numeric code printed on receipts.
type Employee struct {
	// Code is the natural key (e.g. "042").
	Code string

	// Name is the display name taken from the first receipt the code appears on.
	Name string
}

// Product is identified by its description text.
type Product struct {
	// Description is the natural key, exactly as printed on the receipt.
	Description string

	// UnitPrice is derived from the first line the description appears on.
	UnitPrice decimal.Decimal
}

// =============================================================================
// TICKET ENTITIES
// =============================================================================

// Ticket is the record extracted from one receipt document.
//
// String fields are empty when the corresponding marker was not found.
// Decimal fields are only meaningful when their Has* flag is set.
type Ticket struct {
	// Source is the name of the receipt document the ticket came from.
	Source string

	Number string
	Date   string
	Time   string

	// EmployeeCode and EmployeeName come from the cashier marker.
	EmployeeCode string
	EmployeeName string

	Subtotal    decimal.Decimal
	HasSubtotal bool

	Tax    decimal.Decimal
	HasTax bool

	Total    decimal.Decimal
	HasTotal bool

	// PaymentMethod is the raw text after the payment marker.
	PaymentMethod string

	Lines []TicketLine
}

// TicketLine is one item line within a ticket.
type TicketLine struct {
	Description string
	Quantity    decimal.Decimal
	Amount      decimal.Decimal

	// UnitPrice is Amount / Quantity rounded to two places. It may differ
	// from the product's canonical unit price.
	UnitPrice decimal.Decimal
}

// Payment links a ticket to the method it was paid with.
type Payment struct {
	TicketNumber string
	Method       string

	// Authorization is always empty in this dataset and serialized as NULL.
	Authorization string
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is the complete relational model produced by one run.
type Dataset struct {
	Branch    Branch
	Employees []Employee
	Products  []Product
	Tickets   []*Ticket
}

// Payments derives one payment per ticket that recorded a payment method.
func (d *Dataset) Payments() []Payment {
	var payments []Payment
	for _, t := range d.Tickets {
		if t.PaymentMethod == "" {
			continue
		}
		payments = append(payments, Payment{
			TicketNumber: t.Number,
			Method:       t.PaymentMethod,
		})
	}
	return payments
}

// LineCount returns the number of ticket lines across all tickets.
func (d *Dataset) LineCount() int {
	n := 0
	for _, t := range d.Tickets {
		n += len(t.Lines)
	}
	return n
}
