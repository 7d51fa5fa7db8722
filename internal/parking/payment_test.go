package parking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCashProcessorAlwaysSucceeds(t *testing.T) {
	assert.NoError(t, CashProcessor{}.Charge(context.Background(), PaymentRequest{}))
}

func TestCardProcessor(t *testing.T) {
	p := CardProcessor{MinLength: 8}
	ctx := context.Background()

	assert.NoError(t, p.Charge(ctx, PaymentRequest{CardNumber: "42424242"}))
	assert.Error(t, p.Charge(ctx, PaymentRequest{CardNumber: "4242"}))
	assert.Error(t, p.Charge(ctx, PaymentRequest{}))

	// zero value falls back to the default threshold
	assert.Error(t, CardProcessor{}.Charge(ctx, PaymentRequest{CardNumber: "1234567"}))
	assert.NoError(t, CardProcessor{}.Charge(ctx, PaymentRequest{CardNumber: "12345678"}))
}

func TestUPIProcessor(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, UPIProcessor{}.Charge(ctx, PaymentRequest{UPIHandle: "anil@upi"}))
	assert.Error(t, UPIProcessor{}.Charge(ctx, PaymentRequest{UPIHandle: "anil.upi"}))
}

func TestParsePaymentMethod(t *testing.T) {
	for m, name := range paymentMethodNames {
		got, err := ParsePaymentMethod(name)
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParsePaymentMethod("upi")
	assert.NoError(t, err)
	assert.Equal(t, UPI, got)

	_, err = ParsePaymentMethod("cheque")
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
}

func TestDefaultProcessorsCoverEveryMethod(t *testing.T) {
	processors := DefaultProcessors()
	for m := range paymentMethodNames {
		p, ok := processors[m]
		if assert.True(t, ok, "missing processor for %s", m) {
			assert.Equal(t, m.String(), p.Name())
		}
	}
}
