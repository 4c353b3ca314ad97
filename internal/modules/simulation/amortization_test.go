package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallment(t *testing.T) {
	t.Run("total repaid exceeds principal at positive rate", func(t *testing.T) {
		pmt, err := Installment(10000, 0.0185, 96)
		require.NoError(t, err)

		assert.Greater(t, pmt, 10000.0/96, "payment must cover interest on top of amortization")
		assert.Greater(t, pmt*96, 10000.0)

		// First payment's interest share is principal*rate; the payment
		// must exceed it or the balance never shrinks.
		assert.Greater(t, pmt, 10000*0.0185)
	})

	t.Run("zero rate degenerates to straight-line", func(t *testing.T) {
		pmt, err := Installment(12000, 0, 12)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, pmt)
	})

	t.Run("single installment repays principal plus one period of interest", func(t *testing.T) {
		pmt, err := Installment(1000, 0.02, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1020.0, pmt, 1e-9)
	})

	t.Run("higher rate means higher payment", func(t *testing.T) {
		low, err := Installment(50000, 0.0185, 60)
		require.NoError(t, err)
		high, err := Installment(50000, 0.0355, 60)
		require.NoError(t, err)
		assert.Greater(t, high, low)
	})

	t.Run("longer term means lower payment", func(t *testing.T) {
		short, err := Installment(50000, 0.0185, 24)
		require.NoError(t, err)
		long, err := Installment(50000, 0.0185, 96)
		require.NoError(t, err)
		assert.Less(t, long, short)
	})

	t.Run("rejects non-positive principal", func(t *testing.T) {
		_, err := Installment(0, 0.0185, 12)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = Installment(-100, 0.0185, 12)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects non-positive term", func(t *testing.T) {
		_, err := Installment(1000, 0.0185, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		_, err := Installment(1000, -0.01, 12)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPrincipalForInstallment(t *testing.T) {
	t.Run("inverts the payment formula", func(t *testing.T) {
		pmt, err := Installment(25000, 0.04, 84)
		require.NoError(t, err)

		principal, err := PrincipalForInstallment(pmt, 0.04, 84)
		require.NoError(t, err)
		assert.InDelta(t, 25000, principal, 1e-6)
	})

	t.Run("zero rate inverts straight-line", func(t *testing.T) {
		principal, err := PrincipalForInstallment(500, 0, 24)
		require.NoError(t, err)
		assert.Equal(t, 12000.0, principal)
	})

	t.Run("rejects non-positive installment", func(t *testing.T) {
		_, err := PrincipalForInstallment(0, 0.0185, 12)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
