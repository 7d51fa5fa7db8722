package parking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type BillID uint64

type BillStatus int

const (
	BillPending BillStatus = iota
	BillPaid
	BillFailed
	BillCancelled
)

var billStatusNames = map[BillStatus]string{
	BillPending:   "Pending",
	BillPaid:      "Paid",
	BillFailed:    "Failed",
	BillCancelled: "Cancelled",
}

func (s BillStatus) String() string {
	if name, ok := billStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("BillStatus(%d)", int(s))
}

func (s BillStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BillStatus) UnmarshalText(text []byte) error {
	for status, name := range billStatusNames {
		if strings.EqualFold(name, string(text)) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown bill status %q", text)
}

// payable reports whether a charge may be attempted. Failed bills stay
// payable so a declined charge can be retried with other credentials.
func (s BillStatus) payable() bool {
	return s == BillPending || s == BillFailed
}

// AlreadyPaidLabel marks a receipt returned for a bill that was already paid.
const AlreadyPaidLabel = "ALREADY_PAID"

type Bill struct {
	ID                 BillID       `json:"id"`
	TicketID           TicketID     `json:"ticket_id"`
	RegistrationNumber string       `json:"registration_number"`
	SlotID             string       `json:"slot_id"`
	SlotCategory       SlotCategory `json:"slot_category"`
	EntryGate          string       `json:"entry_gate"`
	ExitGate           string       `json:"exit_gate"`
	EntryTime          time.Time    `json:"entry_time"`
	ExitTime           time.Time    `json:"exit_time"`
	ParkedMinutes      int64        `json:"parked_minutes"`
	BilledHours        int64        `json:"billed_hours"`
	Amount             int64        `json:"amount"`
	Penalty            int64        `json:"penalty,omitempty"`
	LostTicket         bool         `json:"lost_ticket,omitempty"`
	Status             BillStatus   `json:"status"`
	PaymentMethod      string       `json:"payment_method,omitempty"`
	PaidAt             time.Time    `json:"paid_at,omitzero"`
	FailureReason      string       `json:"failure_reason,omitempty"`
}

type Receipt struct {
	BillID   BillID    `json:"bill_id"`
	TicketID TicketID  `json:"ticket_id"`
	Amount   int64     `json:"amount"`
	Method   string    `json:"method"`
	PaidAt   time.Time `json:"paid_at"`
	Replayed bool      `json:"replayed,omitempty"`
}

// Billing owns the bill ledger. All four ledger operations run under mu.
type Billing struct {
	mu         sync.RWMutex
	bills      map[BillID]*Bill
	lastID     atomic.Uint64
	processors map[PaymentMethod]PaymentProcessor
	now        func() time.Time
}

func NewBilling(processors map[PaymentMethod]PaymentProcessor, now func() time.Time) *Billing {
	if processors == nil {
		processors = DefaultProcessors()
	}
	if now == nil {
		now = time.Now
	}
	return &Billing{
		bills:      make(map[BillID]*Bill),
		processors: processors,
		now:        now,
	}
}

func (b *Billing) CreateBill(ticket Ticket, exitGate string, exitTime time.Time, fb FeeBreakdown) Bill {
	bill := &Bill{
		ID:                 BillID(b.lastID.Add(1)),
		TicketID:           ticket.ID,
		RegistrationNumber: ticket.RegistrationNumber,
		SlotID:             ticket.SlotID,
		SlotCategory:       ticket.SlotCategory,
		EntryGate:          ticket.EntryGate,
		ExitGate:           exitGate,
		EntryTime:          ticket.EntryTime,
		ExitTime:           exitTime,
		ParkedMinutes:      fb.ParkedMinutes,
		BilledHours:        fb.BilledHours,
		Amount:             fb.Amount,
		Penalty:            fb.Penalty,
		LostTicket:         fb.LostTicket,
		Status:             BillPending,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bills[bill.ID] = bill
	return *bill
}

func (b *Billing) GetBill(id BillID) (Bill, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bill, ok := b.bills[id]
	if !ok {
		return Bill{}, false
	}
	return *bill, true
}

func (b *Billing) Bills() []Bill {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bills := make([]Bill, 0, len(b.bills))
	for _, bill := range b.bills {
		bills = append(bills, *bill)
	}

	sort.Slice(bills, func(i, j int) bool {
		return bills[i].ID < bills[j].ID
	})

	return bills
}

// Pay charges a bill once. Paying an already paid bill returns a replay
// receipt without touching a processor.
func (b *Billing) Pay(ctx context.Context, req PaymentRequest) (Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bill, ok := b.bills[req.BillID]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %d", ErrBillNotFound, req.BillID)
	}

	if bill.Status == BillPaid {
		return Receipt{
			BillID:   bill.ID,
			TicketID: bill.TicketID,
			Amount:   bill.Amount,
			Method:   AlreadyPaidLabel,
			PaidAt:   bill.PaidAt,
			Replayed: true,
		}, nil
	}

	if !bill.Status.payable() {
		return Receipt{}, fmt.Errorf("%w: bill %d is not payable in status %s", ErrInvalidTransition, bill.ID, bill.Status)
	}

	processor, ok := b.processors[req.Method]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}

	if err := processor.Charge(ctx, req); err != nil {
		bill.Status = BillFailed
		bill.FailureReason = err.Error()
		return Receipt{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, err.Error())
	}

	bill.Status = BillPaid
	bill.PaymentMethod = processor.Name()
	bill.PaidAt = b.now()
	bill.FailureReason = ""

	return Receipt{
		BillID:   bill.ID,
		TicketID: bill.TicketID,
		Amount:   bill.Amount,
		Method:   processor.Name(),
		PaidAt:   bill.PaidAt,
	}, nil
}

func (b *Billing) Cancel(id BillID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bill, ok := b.bills[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBillNotFound, id)
	}
	if bill.Status == BillPaid {
		return fmt.Errorf("%w: cannot cancel a paid bill", ErrInvalidTransition)
	}

	bill.Status = BillCancelled
	return nil
}

// Reset empties the ledger and restarts ids at 1. Only Facility.Configure calls it.
func (b *Billing) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bills = make(map[BillID]*Bill)
	b.lastID.Store(0)
}
