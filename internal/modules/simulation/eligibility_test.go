package simulation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realcredplus/credito/internal/modules/rates"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	table := rates.DefaultTable()
	require.NoError(t, table.Validate())
	return NewEvaluator(table, zerolog.Nop())
}

func TestEvaluateWithinMargin(t *testing.T) {
	e := newTestEvaluator(t)

	quote, err := e.Evaluate(LoanApplication{
		Category:           rates.CategoryINSS,
		PrincipalRequested: 10000,
		MonthlyIncome:      5000,
		TermMonths:         96,
	})
	require.NoError(t, err)

	assert.False(t, quote.ExceedsCap)
	assert.Equal(t, 1.85, quote.MonthlyRatePct)
	assert.Equal(t, 96, quote.TermMonths)
	assert.InDelta(t, 2250.0, quote.IncomeCap, 1e-9, "45%% of a R$ 5000 income")
	assert.LessOrEqual(t, quote.Installment, quote.IncomeCap)
	assert.InDelta(t, quote.Installment*96, quote.TotalRepaid, 1e-6)
	assert.Greater(t, quote.TotalRepaid, quote.Principal)
}

func TestEvaluateMarginExceeded(t *testing.T) {
	e := newTestEvaluator(t)

	quote, err := e.Evaluate(LoanApplication{
		Category:           rates.CategoryINSS,
		PrincipalRequested: 100000,
		MonthlyIncome:      1000,
		TermMonths:         96,
	})
	require.NoError(t, err, "margin violations are quotes, not errors")

	assert.True(t, quote.ExceedsCap)
	assert.InDelta(t, 450.0, quote.IncomeCap, 1e-9)
	assert.Greater(t, quote.Installment, quote.IncomeCap)
	assert.NotEmpty(t, quote.Reason)

	// The suggested maximum must amortize to exactly the margin ceiling
	pmt, err := Installment(quote.MaxPrincipalAllowed, quote.MonthlyRatePct/100, quote.TermMonths)
	require.NoError(t, err)
	assert.InDelta(t, quote.IncomeCap, pmt, 1e-6)
}

func TestEvaluateNoMarginCategory(t *testing.T) {
	e := newTestEvaluator(t)

	// Crédito pessoal never margin-checks, even on a tiny income
	quote, err := e.Evaluate(LoanApplication{
		Category:           rates.CategoryCreditoPessoal,
		PrincipalRequested: 50000,
		MonthlyIncome:      100,
		TermMonths:         60,
	})
	require.NoError(t, err)

	assert.False(t, quote.ExceedsCap)
	assert.Zero(t, quote.IncomeCap)
	assert.Greater(t, quote.Installment, 100.0)
}

func TestEvaluateFGTS(t *testing.T) {
	e := newTestEvaluator(t)

	t.Run("within withdrawal limit", func(t *testing.T) {
		// Balance 3000 sits in the 30%+150 tier: 1050 available
		quote, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryFGTS,
			PrincipalRequested: 1000,
			MonthlyIncome:      3000,
			TermMonths:         12,
		})
		require.NoError(t, err)
		assert.False(t, quote.ExceedsCap)
		assert.Greater(t, quote.Installment, 0.0)
	})

	t.Run("above withdrawal limit", func(t *testing.T) {
		quote, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryFGTS,
			PrincipalRequested: 2000,
			MonthlyIncome:      3000,
			TermMonths:         12,
		})
		require.NoError(t, err)
		assert.True(t, quote.ExceedsCap)
		assert.InDelta(t, 1050.0, quote.MaxPrincipalAllowed, 1e-9)
		assert.Zero(t, quote.Installment)
		assert.Contains(t, quote.Reason, "1050")
	})

	t.Run("top tier is uncapped percentage", func(t *testing.T) {
		// Balance 40000: 5% + 2900 = 4900 available
		quote, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryFGTS,
			PrincipalRequested: 4900,
			MonthlyIncome:      40000,
			TermMonths:         12,
		})
		require.NoError(t, err)
		assert.False(t, quote.ExceedsCap)
	})
}

func TestEvaluateHardRejections(t *testing.T) {
	e := newTestEvaluator(t)

	t.Run("unknown category", func(t *testing.T) {
		_, err := e.Evaluate(LoanApplication{
			Category:           "consorcio",
			PrincipalRequested: 10000,
			MonthlyIncome:      5000,
			TermMonths:         12,
		})
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("principal below minimum", func(t *testing.T) {
		_, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryINSS,
			PrincipalRequested: 100,
			MonthlyIncome:      5000,
			TermMonths:         12,
		})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("principal above maximum", func(t *testing.T) {
		_, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryCLT,
			PrincipalRequested: 600000,
			MonthlyIncome:      50000,
			TermMonths:         12,
		})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("term above category cap", func(t *testing.T) {
		_, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryCLT,
			PrincipalRequested: 10000,
			MonthlyIncome:      5000,
			TermMonths:         96,
		})
		assert.ErrorIs(t, err, ErrOutOfBounds, "CLT caps at 84 months")
	})

	t.Run("negative income", func(t *testing.T) {
		_, err := e.Evaluate(LoanApplication{
			Category:           rates.CategoryINSS,
			PrincipalRequested: 10000,
			MonthlyIncome:      -1,
			TermMonths:         12,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
