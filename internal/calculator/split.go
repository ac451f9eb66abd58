package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy selects how an expense amount is divided among participants.
type Policy string

const (
	PolicyEqual      Policy = "equal"
	PolicyPercentage Policy = "percentage"
	PolicyCustom     Policy = "custom"
)

var (
	ErrUnknownPolicy    = errors.New("unknown split policy")
	ErrNonPositiveTotal = errors.New("expense amount must be positive")
	ErrNoShares         = errors.New("must have at least one participant")
	ErrMissingUser      = errors.New("participant user id required")
	ErrDuplicateShare   = errors.New("participant listed more than once")
	ErrNegativeShare    = errors.New("shares cannot be negative")
	ErrPayerNotListed   = errors.New("payer must be one of the participants")
	ErrPercentageSum    = errors.New("percentages must sum to 100")
	ErrAmountSum        = errors.New("split amounts must sum to expense amount")
)

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.New(1, -2)
)

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyEqual, PolicyPercentage, PolicyCustom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Share is one participant's entry in a split request.
type Share struct {
	UserID string

	// Percentage is read by the Percentage policy only.
	Percentage decimal.Decimal

	// Amount is read by the Custom policy only.
	Amount decimal.Decimal
}

// Obligation is the amount one non-payer owes the payer.
type Obligation struct {
	UserID string
	Amount decimal.Decimal
}

// CalculateSplit fans total out into obligations for every listed participant
// except the payer, whose share is retained implicitly.
//
// Rounding: each obligation is rounded half-up to 2 decimals on its own; no
// remainder is redistributed, so the obligations may differ from the exact
// shared portion by at most one cent per row.
//
// Percentage and Custom validate the full participant set, payer included,
// to within 0.01 before producing anything.
func CalculateSplit(policy Policy, total decimal.Decimal, payerID string, shares []Share) ([]Obligation, error) {
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}
	if err := validateShares(payerID, shares); err != nil {
		return nil, err
	}

	var amounts func(s Share) decimal.Decimal

	switch policy {
	case PolicyEqual:
		perPerson := total.Div(decimal.NewFromInt(int64(len(shares)))).Round(2)
		amounts = func(Share) decimal.Decimal { return perPerson }

	case PolicyPercentage:
		sum := decimal.Zero
		for _, s := range shares {
			sum = sum.Add(s.Percentage)
		}
		if sum.Sub(hundred).Abs().GreaterThan(tolerance) {
			return nil, ErrPercentageSum
		}
		amounts = func(s Share) decimal.Decimal {
			return total.Mul(s.Percentage).Div(hundred).Round(2)
		}

	case PolicyCustom:
		sum := decimal.Zero
		for _, s := range shares {
			sum = sum.Add(s.Amount)
		}
		if sum.Sub(total).Abs().GreaterThan(tolerance) {
			return nil, ErrAmountSum
		}
		amounts = func(s Share) decimal.Decimal { return s.Amount.Round(2) }

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	obligations := make([]Obligation, 0, len(shares)-1)
	for _, s := range shares {
		if s.UserID == payerID {
			continue
		}
		obligations = append(obligations, Obligation{UserID: s.UserID, Amount: amounts(s)})
	}
	return obligations, nil
}

func validateShares(payerID string, shares []Share) error {
	if len(shares) == 0 {
		return ErrNoShares
	}

	seen := make(map[string]bool, len(shares))
	payerListed := false
	for _, s := range shares {
		if s.UserID == "" {
			return ErrMissingUser
		}
		if seen[s.UserID] {
			return fmt.Errorf("%w: %s", ErrDuplicateShare, s.UserID)
		}
		seen[s.UserID] = true

		if s.Percentage.IsNegative() || s.Amount.IsNegative() {
			return ErrNegativeShare
		}
		if s.UserID == payerID {
			payerListed = true
		}
	}

	if !payerListed {
		return ErrPayerNotListed
	}
	return nil
}
