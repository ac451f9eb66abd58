package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Line is one unsettled obligation from a debtor to a creditor.
type Line struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}

// CounterpartyAmount is the aggregated amount between a user and one other user.
type CounterpartyAmount struct {
	UserID string
	Amount decimal.Decimal
}

// Position is one user's aggregated view over a set of lines.
type Position struct {
	UserID string

	// Owes is grouped by creditor; Owed is grouped by debtor.
	// Both are sorted by counterparty ID.
	Owes []CounterpartyAmount
	Owed []CounterpartyAmount

	TotalOwes decimal.Decimal
	TotalOwed decimal.Decimal

	// NetBalance = TotalOwed - TotalOwes.
	// Positive = others owe this user, Negative = this user owes others.
	NetBalance decimal.Decimal
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// CalculatePosition aggregates the lines that involve userID.
// Both halves of the position come from the same slice, so callers that read
// lines in one snapshot get a position without read skew.
func CalculatePosition(userID string, lines []Line) Position {
	owes := make(map[string]decimal.Decimal)
	owed := make(map[string]decimal.Decimal)

	for _, l := range lines {
		if l.DebtorID == l.CreditorID {
			continue
		}
		if l.DebtorID == userID {
			owes[l.CreditorID] = owes[l.CreditorID].Add(l.Amount)
		}
		if l.CreditorID == userID {
			owed[l.DebtorID] = owed[l.DebtorID].Add(l.Amount)
		}
	}

	pos := Position{UserID: userID}
	pos.Owes, pos.TotalOwes = flatten(owes)
	pos.Owed, pos.TotalOwed = flatten(owed)
	pos.NetBalance = pos.TotalOwed.Sub(pos.TotalOwes)
	return pos
}

func flatten(m map[string]decimal.Decimal) ([]CounterpartyAmount, decimal.Decimal) {
	out := make([]CounterpartyAmount, 0, len(m))
	total := decimal.Zero
	for id, amount := range m {
		out = append(out, CounterpartyAmount{UserID: id, Amount: amount})
		total = total.Add(amount)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, total
}

// NetBalances computes every party's net balance over the lines.
// The values always sum to zero.
func NetBalances(lines []Line) map[string]decimal.Decimal {
	nets := make(map[string]decimal.Decimal)
	for _, l := range lines {
		if l.DebtorID == l.CreditorID {
			continue
		}
		nets[l.DebtorID] = nets[l.DebtorID].Sub(l.Amount)
		nets[l.CreditorID] = nets[l.CreditorID].Add(l.Amount)
	}
	return nets
}

type party struct {
	id     string
	amount decimal.Decimal
}

// SimplifyDebts turns net balances into a short list of transfers that
// settles everyone.
//
// Algorithm: greedy matching of the largest debtor with the largest creditor.
// Ties are broken by ID so the plan is deterministic.
func SimplifyDebts(nets map[string]decimal.Decimal) []DebtEdge {
	var debtors, creditors []party
	for id, net := range nets {
		switch {
		case net.IsNegative():
			debtors = append(debtors, party{id: id, amount: net.Neg()})
		case net.IsPositive():
			creditors = append(creditors, party{id: id, amount: net})
		}
	}
	byAmount := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{From: debtors[i].id, To: creditors[j].id, Amount: amount})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if !debtors[i].amount.IsPositive() {
			i++
		}
		if !creditors[j].amount.IsPositive() {
			j++
		}
	}
	return edges
}
