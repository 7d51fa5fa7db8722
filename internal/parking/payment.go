package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type PaymentMethod int

const (
	Cash PaymentMethod = iota
	Card
	UPI
)

var paymentMethodNames = map[PaymentMethod]string{
	Cash: "Cash",
	Card: "Card",
	UPI:  "UPI",
}

func (m PaymentMethod) String() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PaymentMethod(%d)", int(m))
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for m, name := range paymentMethodNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type PaymentRequest struct {
	BillID BillID
	Amount int64
	Method PaymentMethod
	// CardNumber is only read by the card processor.
	CardNumber string
	// UPIHandle is only read by the UPI processor, e.g. "user@bank".
	UPIHandle string
}

// PaymentProcessor charges a request. A nil error means the charge went
// through; any error is the decline reason.
type PaymentProcessor interface {
	Name() string
	Charge(ctx context.Context, req PaymentRequest) error
}

type CashProcessor struct{}

func (CashProcessor) Name() string { return "Cash" }

func (CashProcessor) Charge(context.Context, PaymentRequest) error {
	return nil
}

const DefaultCardMinLength = 8

type CardProcessor struct {
	MinLength int
}

func (CardProcessor) Name() string { return "Card" }

func (p CardProcessor) Charge(_ context.Context, req PaymentRequest) error {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = DefaultCardMinLength
	}
	if len(req.CardNumber) < minLength {
		return errors.New("card declined (invalid number)")
	}
	return nil
}

type UPIProcessor struct{}

func (UPIProcessor) Name() string { return "UPI" }

func (UPIProcessor) Charge(_ context.Context, req PaymentRequest) error {
	if !strings.Contains(req.UPIHandle, "@") {
		return errors.New("UPI failed (invalid VPA)")
	}
	return nil
}

func DefaultProcessors() map[PaymentMethod]PaymentProcessor {
	return map[PaymentMethod]PaymentProcessor{
		Cash: CashProcessor{},
		Card: CardProcessor{MinLength: DefaultCardMinLength},
		UPI:  UPIProcessor{},
	}
}
