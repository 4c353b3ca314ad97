package simulation

import (
	"fmt"
	"math"
)

// PortabilityQuote describes refinancing an existing loan at our ceiling
type PortabilityQuote struct {
	OutstandingBalance  float64 // Present value of the remaining installments
	CurrentInstallment  float64
	CurrentRatePct      float64
	NewRatePct          float64
	NewInstallment      float64
	MonthlySavings      float64
	TotalSavings        float64
	RemainingTermMonths int
}

// Portability computes the payoff balance of an existing loan as the
// present value of an ordinary annuity and re-amortizes it at the new
// rate ceiling. Rates are percent per month.
//
// Returns ErrNoBenefit before computing anything when the applicant's
// current rate is already at or below the new ceiling, so callers never
// present a worse deal as a saving.
func Portability(currentInstallment, currentRatePct float64, remainingTermMonths int, newRatePct float64) (PortabilityQuote, error) {
	if currentInstallment <= 0 {
		return PortabilityQuote{}, fmt.Errorf("%w: parcela atual deve ser positiva", ErrInvalidInput)
	}
	if currentRatePct <= 0 {
		return PortabilityQuote{}, fmt.Errorf("%w: taxa atual deve ser positiva", ErrInvalidInput)
	}
	if remainingTermMonths <= 0 {
		return PortabilityQuote{}, fmt.Errorf("%w: prazo restante deve ser positivo", ErrInvalidInput)
	}
	if newRatePct <= 0 {
		return PortabilityQuote{}, fmt.Errorf("%w: nova taxa deve ser positiva", ErrInvalidInput)
	}

	if currentRatePct <= newRatePct {
		return PortabilityQuote{}, fmt.Errorf(
			"%w: sua taxa atual (%.2f%% a.m.) já é melhor ou igual à nossa taxa de %.2f%% a.m.",
			ErrNoBenefit, currentRatePct, newRatePct)
	}

	// Outstanding balance: PV of an ordinary annuity at the old rate
	oldRate := currentRatePct / 100
	factor := math.Pow(1+oldRate, float64(remainingTermMonths))
	balance := currentInstallment * (factor - 1) / (oldRate * factor)

	newInstallment, err := Installment(balance, newRatePct/100, remainingTermMonths)
	if err != nil {
		return PortabilityQuote{}, err
	}

	monthlySavings := currentInstallment - newInstallment

	return PortabilityQuote{
		OutstandingBalance:  balance,
		CurrentInstallment:  currentInstallment,
		CurrentRatePct:      currentRatePct,
		NewRatePct:          newRatePct,
		NewInstallment:      newInstallment,
		MonthlySavings:      monthlySavings,
		TotalSavings:        monthlySavings * float64(remainingTermMonths),
		RemainingTermMonths: remainingTermMonths,
	}, nil
}
