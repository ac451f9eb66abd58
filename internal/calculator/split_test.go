package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amountsByUser(obligations []Obligation) map[string]string {
	out := make(map[string]string, len(obligations))
	for _, o := range obligations {
		out[o.UserID] = o.Amount.StringFixed(2)
	}
	return out
}

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		total   string
		payer   string
		shares  []Share
		want    map[string]string
		wantErr error
	}{
		{
			name:   "equal two people, payer retains own share",
			policy: PolicyEqual,
			total:  "300",
			payer:  "alice",
			shares: []Share{{UserID: "alice"}, {UserID: "bob"}},
			want:   map[string]string{"bob": "150.00"},
		},
		{
			name:   "equal three people rounds each row half-up",
			policy: PolicyEqual,
			total:  "100",
			payer:  "alice",
			shares: []Share{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}},
			want:   map[string]string{"bob": "33.33", "carol": "33.33"},
		},
		{
			name:   "equal rounds up at half cent",
			policy: PolicyEqual,
			total:  "0.05",
			payer:  "alice",
			shares: []Share{{UserID: "alice"}, {UserID: "bob"}},
			want:   map[string]string{"bob": "0.03"},
		},
		{
			name:    "equal without payer in list is rejected",
			policy:  PolicyEqual,
			total:   "90",
			payer:   "alice",
			shares:  []Share{{UserID: "bob"}, {UserID: "carol"}},
			wantErr: ErrPayerNotListed,
		},
		{
			name:   "percentage excludes payer row",
			policy: PolicyPercentage,
			total:  "200",
			payer:  "alice",
			shares: []Share{
				{UserID: "alice", Percentage: d("50")},
				{UserID: "bob", Percentage: d("30")},
				{UserID: "carol", Percentage: d("20")},
			},
			want: map[string]string{"bob": "60.00", "carol": "40.00"},
		},
		{
			name:   "percentage within tolerance is accepted",
			policy: PolicyPercentage,
			total:  "100",
			payer:  "alice",
			shares: []Share{
				{UserID: "alice", Percentage: d("33.33")},
				{UserID: "bob", Percentage: d("33.33")},
				{UserID: "carol", Percentage: d("33.33")},
			},
			want: map[string]string{"bob": "33.33", "carol": "33.33"},
		},
		{
			name:   "percentage not summing to 100",
			policy: PolicyPercentage,
			total:  "100",
			payer:  "alice",
			shares: []Share{
				{UserID: "alice", Percentage: d("50")},
				{UserID: "bob", Percentage: d("40")},
			},
			wantErr: ErrPercentageSum,
		},
		{
			name:   "custom amounts verbatim",
			policy: PolicyCustom,
			total:  "120",
			payer:  "alice",
			shares: []Share{
				{UserID: "alice", Amount: d("20")},
				{UserID: "bob", Amount: d("70.004")},
				{UserID: "carol", Amount: d("29.996")},
			},
			want: map[string]string{"bob": "70.00", "carol": "30.00"},
		},
		{
			name:   "custom amounts must match total",
			policy: PolicyCustom,
			total:  "120",
			payer:  "alice",
			shares: []Share{
				{UserID: "alice", Amount: d("20")},
				{UserID: "bob", Amount: d("90")},
			},
			wantErr: ErrAmountSum,
		},
		{
			name:    "duplicate participant",
			policy:  PolicyEqual,
			total:   "10",
			payer:   "alice",
			shares:  []Share{{UserID: "alice"}, {UserID: "bob"}, {UserID: "bob"}},
			wantErr: ErrDuplicateShare,
		},
		{
			name:    "negative share",
			policy:  PolicyCustom,
			total:   "10",
			payer:   "alice",
			shares:  []Share{{UserID: "alice", Amount: d("20")}, {UserID: "bob", Amount: d("-10")}},
			wantErr: ErrNegativeShare,
		},
		{
			name:    "no participants",
			policy:  PolicyEqual,
			total:   "10",
			payer:   "alice",
			wantErr: ErrNoShares,
		},
		{
			name:    "zero total",
			policy:  PolicyEqual,
			total:   "0",
			payer:   "alice",
			shares:  []Share{{UserID: "alice"}},
			wantErr: ErrNonPositiveTotal,
		},
		{
			name:    "unknown policy",
			policy:  Policy("shares"),
			total:   "10",
			payer:   "alice",
			shares:  []Share{{UserID: "alice"}},
			wantErr: ErrUnknownPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSplit(tt.policy, d(tt.total), tt.payer, tt.shares)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amountsByUser(got))
		})
	}
}

func TestCalculateSplit_EqualSumWithinOneCentPerRow(t *testing.T) {
	total := d("1000.01")
	for n := 2; n <= 12; n++ {
		shares := make([]Share, n)
		for i := range shares {
			shares[i] = Share{UserID: string(rune('a' + i))}
		}

		got, err := CalculateSplit(PolicyEqual, total, "a", shares)
		require.NoError(t, err)
		require.Len(t, got, n-1)

		sum := decimal.Zero
		for _, o := range got {
			sum = sum.Add(o.Amount)
		}
		exact := total.Mul(decimal.NewFromInt(int64(n - 1))).Div(decimal.NewFromInt(int64(n)))
		bound := decimal.New(int64(n-1), -2)
		assert.True(t, sum.Sub(exact).Abs().LessThanOrEqual(bound),
			"n=%d: sum %s drifted from %s by more than %s", n, sum, exact, bound)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Percentage ")
	require.NoError(t, err)
	assert.Equal(t, PolicyPercentage, p)

	_, err = ParsePolicy("weights")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
