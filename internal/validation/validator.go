// =============================================================================
// Receipt-to-SQL Converter - Validation Engine
// =============================================================================
//
// This module decides which extracted tickets are accepted into the output
// and checks the assembled dataset before it is serialized.
//
// VALIDATION LEVELS:
//   1. Ticket-level: a ticket is accepted only when its number, date,
//      subtotal, tax and total were all captured. Employee, time, payment
//      and item lines are optional.
//   2. Dataset-level: every reference that the serializer will resolve with
//      a sub-query (employee code, product description, ticket number) must
//      point at an entity that is also being inserted.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Required ticket fields, named after the columns they fill.
const (
	FieldNumber   = "numero_ticket"
	FieldDate     = "fecha"
	FieldSubtotal = "subtotal"
	FieldTax      = "iva"
	FieldTotal    = "total"
)

// TicketError reports a ticket rejected for missing required fields.
type TicketError struct {
	// Source is the receipt document the ticket came from.
	Source string

	// Missing lists the required fields that were not captured.
	Missing []string
}

// Error implements the error interface.
func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket from %s rejected: missing %s", e.Source, strings.Join(e.Missing, ", "))
}

// ReferenceError reports a dataset reference without a target entity.
type ReferenceError struct {
	// Table is the table holding the dangling reference.
	Table string

	// Ticket is the ticket number the reference belongs to.
	Ticket string

	// Reference names the missing target, e.g. "producto 'Leche 1L'".
	Reference string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s row of ticket %s references unknown %s", e.Table, e.Ticket, e.Reference)
}

// =============================================================================
// TICKET VALIDATION
// =============================================================================

// Accept returns nil when the ticket carries every required field, or a
// *TicketError naming the missing ones.
func Accept(t *types.Ticket) error {
	var missing []string

	if t.Number == "" {
		missing = append(missing, FieldNumber)
	}
	if t.Date == "" {
		missing = append(missing, FieldDate)
	}
	if !t.HasSubtotal {
		missing = append(missing, FieldSubtotal)
	}
	if !t.HasTax {
		missing = append(missing, FieldTax)
	}
	if !t.HasTotal {
		missing = append(missing, FieldTotal)
	}

	if len(missing) > 0 {
		return &TicketError{Source: t.Source, Missing: missing}
	}
	return nil
}

// =============================================================================
// DATASET VALIDATION
// =============================================================================

// CheckDataset verifies referential completeness of a dataset. It returns
// every problem found rather than stopping at the first.
func CheckDataset(d *types.Dataset) []error {
	var errs []error

	if strings.TrimSpace(d.Branch.Name) == "" {
		errs = append(errs, fmt.Errorf("branch name is empty"))
	}

	employees := make(map[string]bool, len(d.Employees))
	for _, e := range d.Employees {
		employees[e.Code] = true
	}

	products := make(map[string]bool, len(d.Products))
	for _, p := range d.Products {
		products[p.Description] = true
	}

	tickets := make(map[string]bool, len(d.Tickets))
	for _, t := range d.Tickets {
		if tickets[t.Number] {
			errs = append(errs, fmt.Errorf("duplicate ticket number %s (from %s)", t.Number, t.Source))
		}
		tickets[t.Number] = true

		if t.EmployeeCode != "" && !employees[t.EmployeeCode] {
			errs = append(errs, &ReferenceError{
				Table:     "ticket",
				Ticket:    t.Number,
				Reference: fmt.Sprintf("empleado '%s'", t.EmployeeCode),
			})
		}

		for _, line := range t.Lines {
			if !products[line.Description] {
				errs = append(errs, &ReferenceError{
					Table:     "ticket_linea",
					Ticket:    t.Number,
					Reference: fmt.Sprintf("producto '%s'", line.Description),
				})
			}
		}
	}

	return errs
}

// FormatErrors formats a list of errors for display.
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}
