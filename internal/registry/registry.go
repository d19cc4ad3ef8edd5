// =============================================================================
// Receipt-to-SQL Converter - Entity Registry
// =============================================================================
//
// This module collapses the employees and products referenced by many
// tickets into unique entities keyed by their natural keys.
//
// FIRST WRITE WINS:
//   The first value seen for a key is canonical for the whole run. Later
//   tickets showing a different cashier name or implying a different unit
//   price do not change it. "First" follows the order of the tickets passed
//   to Build, which the converter derives from the sorted document names.
//
// =============================================================================

package registry

import (
	"github.com/ginjaninja78/receipts-to-sql/internal/types"
)

// Registry holds the unique employees and products in first-seen order.
type Registry struct {
	employees []types.Employee
	products  []types.Product

	employeeIndex map[string]int
	productIndex  map[string]int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		employeeIndex: make(map[string]int),
		productIndex:  make(map[string]int),
	}
}

// Build registers every employee and product referenced by tickets, in
// ticket order and then line order.
func Build(tickets []*types.Ticket) *Registry {
	r := New()
	for _, t := range tickets {
		r.AddTicket(t)
	}
	return r
}

// AddTicket registers the cashier and the products of one ticket.
func (r *Registry) AddTicket(t *types.Ticket) {
	if t.EmployeeCode != "" {
		r.AddEmployee(types.Employee{Code: t.EmployeeCode, Name: t.EmployeeName})
	}
	for _, line := range t.Lines {
		r.AddProduct(types.Product{Description: line.Description, UnitPrice: line.UnitPrice})
	}
}

// AddEmployee registers e unless its code is already known.
// It reports whether e was added.
func (r *Registry) AddEmployee(e types.Employee) bool {
	if _, ok := r.employeeIndex[e.Code]; ok {
		return false
	}
	r.employeeIndex[e.Code] = len(r.employees)
	r.employees = append(r.employees, e)
	return true
}

// AddProduct registers p unless its description is already known.
// It reports whether p was added.
func (r *Registry) AddProduct(p types.Product) bool {
	if _, ok := r.productIndex[p.Description]; ok {
		return false
	}
	r.productIndex[p.Description] = len(r.products)
	r.products = append(r.products, p)
	return true
}

// Employee looks up an employee by code.
func (r *Registry) Employee(code string) (types.Employee, bool) {
	i, ok := r.employeeIndex[code]
	if !ok {
		return types.Employee{}, false
	}
	return r.employees[i], true
}

// Product looks up a product by description.
func (r *Registry) Product(description string) (types.Product, bool) {
	i, ok := r.productIndex[description]
	if !ok {
		return types.Product{}, false
	}
	return r.products[i], true
}

// Employees returns the employees in first-seen order.
func (r *Registry) Employees() []types.Employee {
	return append([]types.Employee(nil), r.employees...)
}

// Products returns the products in first-seen order.
func (r *Registry) Products() []types.Product {
	return append([]types.Product(nil), r.products...)
}
