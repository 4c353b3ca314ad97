package simulation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/modules/rates"
)

// LoanApplication is one simulation request. Identity fields are
// pass-through for the lead notification and not validated here.
type LoanApplication struct {
	Category           rates.Category
	PrincipalRequested float64
	MonthlyIncome      float64 // FGTS category reads this as the fund balance
	TermMonths         int

	Name  string
	CPF   string
	Email string
	Phone string
}

// LoanQuote is the outcome of an evaluation. ExceedsCap marks a soft cap:
// the requested amount is not feasible but MaxPrincipalAllowed is, so the
// caller can offer the largest viable loan instead of a bare rejection.
type LoanQuote struct {
	Category            rates.Category
	CategoryName        string
	Principal           float64
	MonthlyRatePct      float64 // Percent per month (1.85, not 0.0185)
	Installment         float64
	TotalRepaid         float64
	TermMonths          int
	ExceedsCap          bool
	MaxPrincipalAllowed float64 // Set when ExceedsCap
	IncomeCap           float64 // Margin ceiling in R$, 0 when no margin check
	Reason              string  // Human-readable cap explanation, pt-BR
}

// Evaluator applies category rules to loan applications. It is stateless
// apart from the read-only rate table and safe for concurrent use.
type Evaluator struct {
	table *rates.Table
	log   zerolog.Logger
}

// NewEvaluator creates an evaluator over the given rate table
func NewEvaluator(table *rates.Table, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		table: table,
		log:   log.With().Str("component", "eligibility").Logger(),
	}
}

// Evaluate validates bounds, computes the installment at the category's
// rate ceiling and checks it against the income margin (or the FGTS
// withdrawal schedule). Margin violations return a capped quote, not an
// error; only bound violations are hard rejections.
func (e *Evaluator) Evaluate(app LoanApplication) (LoanQuote, error) {
	cfg, ok := e.table.Get(app.Category)
	if !ok {
		return LoanQuote{}, fmt.Errorf("%w: %q", ErrUnknownCategory, app.Category)
	}

	if app.MonthlyIncome < 0 {
		return LoanQuote{}, fmt.Errorf("%w: renda mensal não pode ser negativa", ErrInvalidInput)
	}
	if app.PrincipalRequested < cfg.MinPrincipal || app.PrincipalRequested > cfg.MaxPrincipal {
		return LoanQuote{}, fmt.Errorf(
			"%w: valor para %s deve estar entre R$ %.2f e R$ %.2f",
			ErrOutOfBounds, cfg.Name, cfg.MinPrincipal, cfg.MaxPrincipal)
	}
	if app.TermMonths <= 0 {
		return LoanQuote{}, fmt.Errorf("%w: prazo deve ser positivo", ErrInvalidInput)
	}
	if app.TermMonths > cfg.TermCapMonths {
		return LoanQuote{}, fmt.Errorf(
			"%w: prazo máximo para %s é de %d meses",
			ErrOutOfBounds, cfg.Name, cfg.TermCapMonths)
	}

	if app.Category == rates.CategoryFGTS {
		return e.evaluateFGTS(app, cfg)
	}
	return e.evaluateMargin(app, cfg)
}

// evaluateFGTS caps the principal at the balance-tiered withdrawal amount.
// The applicant's reported income stands in for the fund balance, matching
// how the simulation form collects it.
func (e *Evaluator) evaluateFGTS(app LoanApplication, cfg rates.RateConfig) (LoanQuote, error) {
	available, err := cfg.AvailableWithdrawal(app.MonthlyIncome)
	if err != nil {
		return LoanQuote{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if app.PrincipalRequested > available {
		e.log.Debug().
			Float64("requested", app.PrincipalRequested).
			Float64("available", available).
			Msg("FGTS request above withdrawal limit")

		return LoanQuote{
			Category:            app.Category,
			CategoryName:        cfg.Name,
			Principal:           app.PrincipalRequested,
			MonthlyRatePct:      cfg.RateCeilingPctPerMonth,
			Installment:         0,
			TotalRepaid:         0,
			TermMonths:          app.TermMonths,
			ExceedsCap:          true,
			MaxPrincipalAllowed: available,
			Reason:              fmt.Sprintf("Valor máximo disponível para saque é de R$ %.2f", available),
		}, nil
	}

	installment, err := Installment(app.PrincipalRequested, cfg.RateCeilingPctPerMonth/100, app.TermMonths)
	if err != nil {
		return LoanQuote{}, err
	}

	return LoanQuote{
		Category:       app.Category,
		CategoryName:   cfg.Name,
		Principal:      app.PrincipalRequested,
		MonthlyRatePct: cfg.RateCeilingPctPerMonth,
		Installment:    installment,
		TotalRepaid:    installment * float64(app.TermMonths),
		TermMonths:     app.TermMonths,
	}, nil
}

// evaluateMargin computes the installment and, for categories with a
// margem consignável, checks it against the income share cap. When the
// cap is exceeded the quote carries the inverted-PMT maximum principal.
func (e *Evaluator) evaluateMargin(app LoanApplication, cfg rates.RateConfig) (LoanQuote, error) {
	rate := cfg.RateCeilingPctPerMonth / 100

	installment, err := Installment(app.PrincipalRequested, rate, app.TermMonths)
	if err != nil {
		return LoanQuote{}, err
	}

	quote := LoanQuote{
		Category:       app.Category,
		CategoryName:   cfg.Name,
		Principal:      app.PrincipalRequested,
		MonthlyRatePct: cfg.RateCeilingPctPerMonth,
		Installment:    installment,
		TotalRepaid:    installment * float64(app.TermMonths),
		TermMonths:     app.TermMonths,
	}

	if !cfg.HasMarginCap() {
		// Crédito pessoal has no income-margin check
		return quote, nil
	}

	incomeCap := app.MonthlyIncome * cfg.MarginCapPct / 100
	quote.IncomeCap = incomeCap

	if installment > incomeCap {
		maxPrincipal, err := PrincipalForInstallment(incomeCap, rate, app.TermMonths)
		if err != nil {
			// incomeCap <= 0 (no income reported): nothing is feasible
			maxPrincipal = 0
		}

		e.log.Debug().
			Str("category", string(app.Category)).
			Float64("installment", installment).
			Float64("income_cap", incomeCap).
			Float64("max_principal", maxPrincipal).
			Msg("Installment above margin, returning capped quote")

		quote.ExceedsCap = true
		quote.MaxPrincipalAllowed = maxPrincipal
		quote.Reason = fmt.Sprintf("Valor da parcela excede %.0f%% do seu salário", cfg.MarginCapPct)
	}

	return quote, nil
}
