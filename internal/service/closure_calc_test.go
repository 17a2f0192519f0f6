package service

import (
	"testing"
	"time"

	"vendapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Fixed clock keeps the calendar-day logic deterministic regardless of when
// the tests run.
var (
	openedAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	closedAt = openedAt.Add(8 * time.Hour)
)

func testSession(opening string) *model.CashSession {
	return &model.CashSession{
		ID:            uuid.New(),
		RegisterID:    1,
		UserID:        uuid.New(),
		OpeningAmount: dec(opening),
		Status:        model.SessionOpen,
		OpenedAt:      openedAt,
	}
}

func testSale(session *model.CashSession, method, total, cost string, operator string) model.Sale {
	s := model.Sale{
		ID:            uuid.New(),
		SessionID:     session.ID,
		UserID:        session.UserID,
		PaymentMethod: method,
		Subtotal:      dec(total),
		Total:         dec(total),
		CostTotal:     dec(cost),
		Status:        model.SaleFinalized,
		CreatedAt:     openedAt.Add(time.Hour),
	}
	if operator != "" {
		s.User = &model.User{Name: operator}
	}
	return s
}

func TestComputeClosureZeroActivity(t *testing.T) {
	session := testSession("100.00")
	res := ComputeClosure(session, nil, nil, nil, nil, closedAt)

	assert.True(t, res.TotalSales.IsZero())
	assert.True(t, res.TotalCosts.IsZero())
	assert.True(t, res.TotalExpenses.IsZero())
	assert.True(t, res.FinalCashAmount.Equal(dec("100.00")))
	assert.Empty(t, res.SaleIDs)
	assert.Empty(t, res.Operators)
}

func TestComputeClosureSingleCashSale(t *testing.T) {
	session := testSession("100.00")
	sale := testSale(session, model.PayCash, "50.00", "0.00", "Alice")

	res := ComputeClosure(session, []model.Sale{sale}, nil, nil, nil, closedAt)

	assert.True(t, res.TotalSales.Equal(dec("50.00")), "totalSales = %s", res.TotalSales)
	assert.True(t, res.FinalCashAmount.Equal(dec("150.00")), "finalCash = %s", res.FinalCashAmount)
	assert.True(t, res.Methods.Cash.Equal(dec("50.00")))
	assert.True(t, res.Methods.Total.Equal(res.TotalSales))
}

func TestComputeClosureCancellationNetsToZero(t *testing.T) {
	session := testSession("100.00")
	sale := testSale(session, model.PayCredit, "80.00", "30.00", "Alice")
	cancelled := sale
	cancelled.Status = model.SaleCancelled

	res := ComputeClosure(session, []model.Sale{sale}, []model.Sale{cancelled}, nil, nil, closedAt)

	assert.True(t, res.TotalSales.IsZero(), "totalSales = %s", res.TotalSales)
	assert.True(t, res.Methods.Credit.IsZero())
	// finalCash = opening + 0 − totalCosts: the cancelled sale's cost stays in.
	assert.True(t, res.FinalCashAmount.Equal(dec("100.00").Sub(res.TotalCosts)),
		"finalCash = %s, costs = %s", res.FinalCashAmount, res.TotalCosts)
	require.Len(t, res.CancellationIDs, 1)
	assert.Equal(t, sale.ID, res.CancellationIDs[0])
}

func TestComputeClosureMixedMethods(t *testing.T) {
	session := testSession("100.00")
	sales := []model.Sale{
		testSale(session, model.PayCash, "50.00", "20.00", "Alice"),
		testSale(session, model.PayCredit, "80.00", "30.00", "Bob"),
		testSale(session, model.PayPixDirect, "30.00", "10.00", "Alice"),
	}
	expenses := []model.Expense{{
		ID:     uuid.New(),
		Date:   session.OpenedAt,
		Amount: dec("25.00"),
	}}

	res := ComputeClosure(session, sales, nil, expenses, nil, closedAt)

	assert.True(t, res.TotalSales.Equal(dec("160.00")))
	assert.True(t, res.TotalCosts.Equal(dec("60.00")))
	assert.True(t, res.TotalExpenses.Equal(dec("25.00")))
	assert.True(t, res.GrossProfit.Equal(dec("100.00")))
	assert.True(t, res.NetProfit.Equal(dec("75.00")))
	assert.True(t, res.FinalCashAmount.Equal(dec("200.00")))

	assert.True(t, res.Methods.Cash.Equal(dec("50.00")))
	assert.True(t, res.Methods.Credit.Equal(dec("80.00")))
	assert.True(t, res.Methods.PixDirect.Equal(dec("30.00")))
	// Cross-check: Σ buckets == totalSales.
	assert.True(t, res.Methods.Total.Equal(res.TotalSales))

	require.Len(t, res.Operators, 2)
	byName := map[string]decimal.Decimal{}
	for _, op := range res.Operators {
		byName[op.Operator] = op.Total
	}
	assert.True(t, byName["Alice"].Equal(dec("80.00")))
	assert.True(t, byName["Bob"].Equal(dec("80.00")))
}

func TestComputeClosureOperatorFallback(t *testing.T) {
	session := testSession("0.00")
	session.RegisterID = 3
	sale := testSale(session, model.PayCash, "10.00", "0.00", "")

	res := ComputeClosure(session, []model.Sale{sale}, nil, nil, nil, closedAt)

	require.Len(t, res.Operators, 1)
	assert.Equal(t, "Register 3", res.Operators[0].Operator)
}

func TestComputeClosureCostFallbackFromItems(t *testing.T) {
	session := testSession("0.00")
	sale := testSale(session, model.PayCash, "40.00", "0.00", "Alice")
	sale.CostTotal = decimal.Zero
	sale.Items = []model.SaleItem{
		{Quantity: 2, UnitCost: dec("7.50")},
		{Quantity: 1, UnitCost: dec("5.00")},
	}

	res := ComputeClosure(session, []model.Sale{sale}, nil, nil, nil, closedAt)

	assert.True(t, res.TotalCosts.Equal(dec("20.00")), "totalCosts = %s", res.TotalCosts)
}

func TestComputeClosureWindowExcludesPriorSession(t *testing.T) {
	session := testSession("50.00")
	prior := session.OpenedAt.Add(30 * time.Minute)

	early := testSale(session, model.PayCash, "15.00", "0.00", "Alice")
	early.CreatedAt = session.OpenedAt.Add(10 * time.Minute) // before the prior closure
	late := testSale(session, model.PayCash, "20.00", "0.00", "Alice")
	late.CreatedAt = prior.Add(10 * time.Minute)

	res := ComputeClosure(session, []model.Sale{early, late}, nil, nil, &prior, closedAt)

	assert.True(t, res.TotalSales.Equal(dec("20.00")), "totalSales = %s", res.TotalSales)
	require.Len(t, res.SaleIDs, 1)
	assert.Equal(t, late.ID, res.SaleIDs[0])
}

func TestComputeClosureExpenseOutsideDayIgnored(t *testing.T) {
	session := testSession("100.00")
	expenses := []model.Expense{
		{ID: uuid.New(), Date: session.OpenedAt, Amount: dec("10.00")},
		{ID: uuid.New(), Date: session.OpenedAt.AddDate(0, 0, -1), Amount: dec("99.00")},
	}

	res := ComputeClosure(session, nil, nil, expenses, nil, closedAt)

	assert.True(t, res.TotalExpenses.Equal(dec("10.00")))
	assert.Len(t, res.ExpenseIDs, 1)
}

func TestComputeClosureDayUsesLocalCalendarDate(t *testing.T) {
	// 22:00 UTC-3 is already the next day in UTC; Day must follow the
	// wall clock, like the expense window does.
	loc := time.FixedZone("UTC-3", -3*60*60)
	late := time.Date(2026, 3, 10, 22, 0, 0, 0, loc)
	session := &model.CashSession{
		ID:            uuid.New(),
		RegisterID:    1,
		UserID:        uuid.New(),
		OpeningAmount: dec("100.00"),
		Status:        model.SessionOpen,
		OpenedAt:      late,
	}

	res := ComputeClosure(session, nil, nil, nil, nil, late.Add(time.Hour))
	assert.Equal(t, "2026-03-10", res.Day.Format("2006-01-02"))
}
