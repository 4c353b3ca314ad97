package simulation

import (
	"fmt"
	"math"
)

// Installment computes the fixed monthly payment for a loan using the
// Price (PMT) method: PMT = PV · r(1+r)^n / ((1+r)^n − 1).
//
// rate is the monthly rate as a fraction (0.0185 for 1.85% a.m.). A zero
// rate degenerates to straight-line repayment (principal / term); the
// general formula divides by zero there.
func Installment(principal float64, rate float64, termMonths int) (float64, error) {
	if principal <= 0 {
		return 0, fmt.Errorf("%w: principal must be positive, got %.2f", ErrInvalidInput, principal)
	}
	if termMonths <= 0 {
		return 0, fmt.Errorf("%w: term must be positive, got %d months", ErrInvalidInput, termMonths)
	}
	if rate < 0 {
		return 0, fmt.Errorf("%w: monthly rate must be non-negative, got %.4f", ErrInvalidInput, rate)
	}

	if rate == 0 {
		return principal / float64(termMonths), nil
	}

	factor := math.Pow(1+rate, float64(termMonths))
	return principal * (rate * factor) / (factor - 1), nil
}

// PrincipalForInstallment inverts the PMT formula: the principal whose
// fixed payment at the given rate and term equals installment. Used to
// suggest the largest feasible loan when a quote exceeds the income margin.
func PrincipalForInstallment(installment float64, rate float64, termMonths int) (float64, error) {
	if installment <= 0 {
		return 0, fmt.Errorf("%w: installment must be positive, got %.2f", ErrInvalidInput, installment)
	}
	if termMonths <= 0 {
		return 0, fmt.Errorf("%w: term must be positive, got %d months", ErrInvalidInput, termMonths)
	}
	if rate < 0 {
		return 0, fmt.Errorf("%w: monthly rate must be non-negative, got %.4f", ErrInvalidInput, rate)
	}

	if rate == 0 {
		return installment * float64(termMonths), nil
	}

	factor := math.Pow(1+rate, float64(termMonths))
	return installment * (factor - 1) / (rate * factor), nil
}
