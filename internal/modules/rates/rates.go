// Package rates holds the per-category credit configuration: rate ceilings,
// margin caps, term caps, value bounds and the FGTS birthday-withdrawal
// bracket schedule. Values follow the regulatory ceilings in force July/2025.
package rates

import (
	"fmt"
	"math"
	"sort"
)

// Category identifies a credit product line
type Category string

const (
	CategoryINSS           Category = "inss"
	CategoryServidor       Category = "servidor"
	CategoryMilitar        Category = "militar"
	CategoryCLT            Category = "clt"
	CategoryCreditoPessoal Category = "credito-pessoal"
	CategoryFGTS           Category = "fgts"
)

// FGTSBracket is one tier of the Saque-Aniversário withdrawal schedule.
// withdrawal = balance × WithdrawalPct/100 + FlatAddOn for balances inside
// (LowerBound, UpperBound].
type FGTSBracket struct {
	LowerBound    float64
	UpperBound    float64 // math.Inf(1) on the open-ended top tier
	WithdrawalPct float64
	FlatAddOn     float64
}

// RateConfig is the immutable configuration for one credit category
type RateConfig struct {
	Name                   string
	RateCeilingPctPerMonth float64
	MarginCapPct           float64 // 0 means no income-margin check (crédito pessoal)
	TermCapMonths          int
	MinPrincipal           float64
	MaxPrincipal           float64
	GracePeriodMonths      int
	FGTSBrackets           []FGTSBracket // FGTS category only
}

// HasMarginCap reports whether installments are checked against income
func (c RateConfig) HasMarginCap() bool {
	return c.MarginCapPct > 0
}

// AvailableWithdrawal applies the bracket schedule to an FGTS balance.
// The schedule is contiguous over [0, ∞), so exactly one bracket matches
// any non-negative balance.
func (c RateConfig) AvailableWithdrawal(balance float64) (float64, error) {
	if balance < 0 {
		return 0, fmt.Errorf("FGTS balance must be non-negative, got %.2f", balance)
	}
	if len(c.FGTSBrackets) == 0 {
		return 0, fmt.Errorf("category %s has no withdrawal schedule", c.Name)
	}

	for _, b := range c.FGTSBrackets {
		if balance <= b.UpperBound {
			return balance*b.WithdrawalPct/100 + b.FlatAddOn, nil
		}
	}

	// Unreachable when the schedule passes Validate (top tier is open-ended)
	return 0, fmt.Errorf("no withdrawal bracket matches balance %.2f", balance)
}

// Table is the read-only category registry, loaded once at startup
type Table struct {
	configs map[Category]RateConfig
}

// DefaultTable builds the registry with the production ceilings
func DefaultTable() *Table {
	return &Table{configs: map[Category]RateConfig{
		CategoryINSS: {
			Name:                   "INSS",
			RateCeilingPctPerMonth: 1.85, // Teto CNPS
			MarginCapPct:           45,   // 35% empréstimo + 10% cartão
			TermCapMonths:          96,
			MinPrincipal:           300,
			MaxPrincipal:           1_000_000,
			GracePeriodMonths:      0,
		},
		CategoryServidor: {
			Name:                   "Servidor Público",
			RateCeilingPctPerMonth: 3.55,
			MarginCapPct:           40,
			TermCapMonths:          96,
			MinPrincipal:           1_000,
			MaxPrincipal:           1_000_000,
			GracePeriodMonths:      1,
		},
		CategoryMilitar: {
			Name:                   "Militar",
			RateCeilingPctPerMonth: 3.45,
			MarginCapPct:           40,
			TermCapMonths:          96,
			MinPrincipal:           1_000,
			MaxPrincipal:           1_000_000,
			GracePeriodMonths:      1,
		},
		CategoryCLT: {
			Name:                   "CLT",
			RateCeilingPctPerMonth: 4.0,
			MarginCapPct:           35,
			TermCapMonths:          84,
			MinPrincipal:           1_000,
			MaxPrincipal:           500_000,
			GracePeriodMonths:      1,
		},
		CategoryCreditoPessoal: {
			Name:                   "Crédito Pessoal",
			RateCeilingPctPerMonth: 8.0, // Teto BC
			MarginCapPct:           0,   // Sem verificação de margem
			TermCapMonths:          60,
			MinPrincipal:           500,
			MaxPrincipal:           100_000,
			GracePeriodMonths:      1,
		},
		CategoryFGTS: {
			Name:                   "Saque Aniversário FGTS",
			RateCeilingPctPerMonth: 1.8,
			MarginCapPct:           100,
			TermCapMonths:          120,
			MinPrincipal:           1_000,
			MaxPrincipal:           1_000_000,
			GracePeriodMonths:      0,
			FGTSBrackets: []FGTSBracket{
				{LowerBound: 0, UpperBound: 500, WithdrawalPct: 50, FlatAddOn: 0},
				{LowerBound: 500, UpperBound: 1_000, WithdrawalPct: 40, FlatAddOn: 50},
				{LowerBound: 1_000, UpperBound: 5_000, WithdrawalPct: 30, FlatAddOn: 150},
				{LowerBound: 5_000, UpperBound: 10_000, WithdrawalPct: 20, FlatAddOn: 650},
				{LowerBound: 10_000, UpperBound: 15_000, WithdrawalPct: 15, FlatAddOn: 1_150},
				{LowerBound: 15_000, UpperBound: 20_000, WithdrawalPct: 10, FlatAddOn: 1_900},
				{LowerBound: 20_000, UpperBound: math.Inf(1), WithdrawalPct: 5, FlatAddOn: 2_900},
			},
		},
	}}
}

// Get looks up the configuration for a category
func (t *Table) Get(category Category) (RateConfig, bool) {
	cfg, ok := t.configs[category]
	return cfg, ok
}

// Categories returns all registered categories in stable order
func (t *Table) Categories() []Category {
	categories := make([]Category, 0, len(t.configs))
	for c := range t.configs {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// Validate checks table invariants at startup: positive ceilings and
// bounds, and a contiguous ascending bracket schedule covering [0, ∞)
// for any category that carries one.
func (t *Table) Validate() error {
	for category, cfg := range t.configs {
		if cfg.RateCeilingPctPerMonth <= 0 {
			return fmt.Errorf("category %s: rate ceiling must be positive", category)
		}
		if cfg.TermCapMonths <= 0 {
			return fmt.Errorf("category %s: term cap must be positive", category)
		}
		if cfg.MinPrincipal <= 0 || cfg.MaxPrincipal <= cfg.MinPrincipal {
			return fmt.Errorf("category %s: invalid principal bounds [%.2f, %.2f]",
				category, cfg.MinPrincipal, cfg.MaxPrincipal)
		}

		if len(cfg.FGTSBrackets) == 0 {
			continue
		}

		brackets := cfg.FGTSBrackets
		if brackets[0].LowerBound != 0 {
			return fmt.Errorf("category %s: first bracket must start at 0", category)
		}
		if !math.IsInf(brackets[len(brackets)-1].UpperBound, 1) {
			return fmt.Errorf("category %s: last bracket must be open-ended", category)
		}
		for i := 1; i < len(brackets); i++ {
			if brackets[i].LowerBound != brackets[i-1].UpperBound {
				return fmt.Errorf("category %s: bracket %d is not contiguous with its predecessor", category, i)
			}
			if brackets[i].UpperBound <= brackets[i].LowerBound {
				return fmt.Errorf("category %s: bracket %d has non-ascending bounds", category, i)
			}
		}
	}

	return nil
}
