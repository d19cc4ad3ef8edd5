package registry

import (
	"testing"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(desc, unit string) types.TicketLine {
	return types.TicketLine{Description: desc, UnitPrice: decimal.RequireFromString(unit)}
}

func TestBuild_EmployeeFirstNameWins(t *testing.T) {
	first := &types.Ticket{Number: "1", EmployeeCode: "042", EmployeeName: "Lucía"}
	second := &types.Ticket{Number: "2", EmployeeCode: "042", EmployeeName: "Lucia F."}

	r := Build([]*types.Ticket{first, second})
	emp, ok := r.Employee("042")
	require.True(t, ok)
	assert.Equal(t, "Lucía", emp.Name)

	// Reversing the order reverses the outcome.
	r = Build([]*types.Ticket{second, first})
	emp, _ = r.Employee("042")
	assert.Equal(t, "Lucia F.", emp.Name)
}

func TestBuild_ProductFirstUnitPriceWins(t *testing.T) {
	tickets := []*types.Ticket{
		{Number: "1", Lines: []types.TicketLine{line("Leche 1L", "1.20"), line("Pan", "1.85")}},
		{Number: "2", Lines: []types.TicketLine{line("Leche 1L", "1.15")}},
	}

	r := Build(tickets)
	products := r.Products()

	require.Len(t, products, 2)
	assert.Equal(t, "Leche 1L", products[0].Description)
	assert.Equal(t, "1.20", products[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "Pan", products[1].Description)
}

func TestBuild_SkipsTicketsWithoutCashier(t *testing.T) {
	r := Build([]*types.Ticket{{Number: "1"}})
	assert.Empty(t, r.Employees())
}

func TestAdd_ReportsNewKeys(t *testing.T) {
	r := New()
	assert.True(t, r.AddEmployee(types.Employee{Code: "1", Name: "A"}))
	assert.False(t, r.AddEmployee(types.Employee{Code: "1", Name: "B"}))
	assert.True(t, r.AddProduct(types.Product{Description: "X"}))
	assert.False(t, r.AddProduct(types.Product{Description: "X"}))

	_, ok := r.Product("Y")
	assert.False(t, ok)
}

func TestEmployees_ReturnsCopy(t *testing.T) {
	r := New()
	r.AddEmployee(types.Employee{Code: "1", Name: "A"})

	list := r.Employees()
	list[0].Name = "changed"

	emp, _ := r.Employee("1")
	assert.Equal(t, "A", emp.Name)
}
