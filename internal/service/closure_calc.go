package service

// closure_calc.go
// Pure reconciliation arithmetic for closing a cash session. No I/O: the
// session service gathers the session's sales, cancellations and expenses and
// hands them here. Keeping this free of persistence makes the numeric
// contracts directly testable.

import (
	"fmt"
	"time"

	"vendapos/internal/dto"
	"vendapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClosureResult is the computed snapshot, ready to be frozen into a
// model.Closure by the caller.
type ClosureResult struct {
	Day             time.Time
	OpeningAmount   decimal.Decimal
	TotalSales      decimal.Decimal
	TotalCosts      decimal.Decimal
	TotalDiscounts  decimal.Decimal
	TotalExpenses   decimal.Decimal
	GrossProfit     decimal.Decimal
	NetProfit       decimal.Decimal
	FinalCashAmount decimal.Decimal
	Methods         dto.MethodTotals
	Operators       []dto.OperatorTotals
	SaleIDs         []uuid.UUID
	CancellationIDs []uuid.UUID
	ExpenseIDs      []uuid.UUID
}

// ComputeClosure derives the financial summary for a session.
//
// sales must contain every sale recorded in the session, including those
// later cancelled; cancellations is the cancelled subset. Each cancellation
// reverses its sale's contribution to totals and to its original payment
// method bucket, so a sell-then-cancel nets to zero. Costs and discounts sum
// over all sales, cancelled included — raw arithmetic, never clamped.
//
// Sales are attributed by session id (tagging is mandatory); the
// [windowStart, closedAt] clamp only remains as a consistency guard against
// records whose timestamps fall outside the session. windowStart is the later
// of the session open time and priorClosureAt (the most recent closure on the
// same calendar day), so two sessions closed on one day never double-count.
//
// Expenses count when dated on the session's calendar day.
//
// FinalCashAmount = openingAmount + totalSales − totalCosts. The formula nets
// out cost rather than expenses: it mirrors the cash a drawer would hold if
// costs were paid from it. Expenses are reported separately and only affect
// NetProfit.
func ComputeClosure(
	session *model.CashSession,
	sales []model.Sale,
	cancellations []model.Sale,
	expenses []model.Expense,
	priorClosureAt *time.Time,
	closedAt time.Time,
) ClosureResult {
	windowStart := session.OpenedAt
	if priorClosureAt != nil && priorClosureAt.After(windowStart) && sameDay(*priorClosureAt, session.OpenedAt) {
		windowStart = *priorClosureAt
	}

	inWindow := func(s *model.Sale) bool {
		return !s.CreatedAt.Before(windowStart) && !s.CreatedAt.After(closedAt)
	}

	// Day is the wall-clock calendar date, matching sameDay and the expense
	// window; Truncate would snap to UTC midnight instead.
	y, m, d := session.OpenedAt.Date()
	res := ClosureResult{
		Day:           time.Date(y, m, d, 0, 0, 0, 0, session.OpenedAt.Location()),
		OpeningAmount: session.OpeningAmount,
	}

	methods := map[string]decimal.Decimal{}
	type opBucket struct {
		methods map[string]decimal.Decimal
		total   decimal.Decimal
	}
	operators := map[string]*opBucket{}
	opOrder := []string{}

	account := func(s *model.Sale, sign decimal.Decimal) {
		amount := s.Total.Mul(sign)
		res.TotalSales = res.TotalSales.Add(amount)
		methods[s.PaymentMethod] = methods[s.PaymentMethod].Add(amount)

		name := operatorName(s, session)
		b, ok := operators[name]
		if !ok {
			b = &opBucket{methods: map[string]decimal.Decimal{}}
			operators[name] = b
			opOrder = append(opOrder, name)
		}
		b.methods[s.PaymentMethod] = b.methods[s.PaymentMethod].Add(amount)
		b.total = b.total.Add(amount)
	}

	one := decimal.NewFromInt(1)
	for i := range sales {
		s := &sales[i]
		if !inWindow(s) {
			continue
		}
		account(s, one)
		res.TotalCosts = res.TotalCosts.Add(saleCost(s))
		res.TotalDiscounts = res.TotalDiscounts.Add(s.DiscountTotal)
		res.SaleIDs = append(res.SaleIDs, s.ID)
	}
	for i := range cancellations {
		s := &cancellations[i]
		if !inWindow(s) {
			continue
		}
		// Reverses the sale's contribution in its original method bucket.
		account(s, one.Neg())
		res.CancellationIDs = append(res.CancellationIDs, s.ID)
	}

	for i := range expenses {
		e := &expenses[i]
		if !sameDay(e.Date, session.OpenedAt) {
			continue
		}
		res.TotalExpenses = res.TotalExpenses.Add(e.Amount)
		res.ExpenseIDs = append(res.ExpenseIDs, e.ID)
	}

	res.GrossProfit = res.TotalSales.Sub(res.TotalCosts)
	res.NetProfit = res.GrossProfit.Sub(res.TotalExpenses)
	res.FinalCashAmount = session.OpeningAmount.Add(res.TotalSales).Sub(res.TotalCosts)

	res.Methods = toMethodTotals(methods)
	for _, name := range opOrder {
		b := operators[name]
		res.Operators = append(res.Operators, dto.OperatorTotals{
			Operator: name,
			Methods:  toMethodTotals(b.methods),
			Total:    b.total,
		})
	}

	return res
}

// saleCost prefers the sale-level frozen cost and falls back to recomputing
// from the line items when the sale predates cost freezing.
func saleCost(s *model.Sale) decimal.Decimal {
	if !s.CostTotal.IsZero() {
		return s.CostTotal
	}
	cost := decimal.Zero
	for _, it := range s.Items {
		cost = cost.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return cost
}

func operatorName(s *model.Sale, session *model.CashSession) string {
	if s.User != nil && s.User.Name != "" {
		return s.User.Name
	}
	return fmt.Sprintf("Register %d", session.RegisterID)
}

func toMethodTotals(m map[string]decimal.Decimal) dto.MethodTotals {
	t := dto.MethodTotals{
		Cash:        m[model.PayCash],
		PixTerminal: m[model.PayPixTerminal],
		PixDirect:   m[model.PayPixDirect],
		Debit:       m[model.PayDebit],
		Credit:      m[model.PayCredit],
	}
	t.Total = t.Cash.Add(t.PixTerminal).Add(t.PixDirect).Add(t.Debit).Add(t.Credit)
	return t
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
