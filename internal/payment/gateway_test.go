package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGateway_Charge(t *testing.T) {
	g := NewSimulatedGateway(1000, []string{"BADCARD"})
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		r, err := g.Charge(ctx, "CUST001", 250)
		require.NoError(t, err)
		assert.NotEmpty(t, r.ChargeID)
		assert.Equal(t, 250.0, r.Amount)
		assert.Equal(t, "CUST001", r.CustomerID)
	})

	t.Run("Over limit", func(t *testing.T) {
		_, err := g.Charge(ctx, "CUST001", 1000.01)
		assert.ErrorIs(t, err, ErrDeclined)
	})

	t.Run("Declined card", func(t *testing.T) {
		_, err := g.Charge(ctx, "BADCARD", 1)
		assert.ErrorIs(t, err, ErrDeclined)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := g.Charge(cctx, "CUST001", 1)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrDeclined)
	})

	assert.Len(t, g.Receipts(), 1)
}

func TestSimulatedGateway_Refund(t *testing.T) {
	g := NewSimulatedGateway(0, nil)
	ctx := context.Background()

	r, err := g.Charge(ctx, "CUST001", 99999)
	require.NoError(t, err)

	assert.NoError(t, g.Refund(ctx, r.ChargeID))
	assert.ErrorIs(t, g.Refund(ctx, r.ChargeID), ErrAlreadyRefund)
	assert.ErrorIs(t, g.Refund(ctx, "missing"), ErrUnknownCharge)

	receipts := g.Receipts()
	require.Len(t, receipts, 1)
	assert.True(t, receipts[0].Refunded)
}
