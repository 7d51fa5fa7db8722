package parking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type FacilityOption func(*Facility)

func WithFeeSchedule(schedule FeeSchedule) FacilityOption {
	return func(f *Facility) { f.fees = schedule }
}

func WithLostTicketPenalty(penalty int64) FacilityOption {
	return func(f *Facility) { f.lostTicketPenalty = penalty }
}

func WithClock(now func() time.Time) FacilityOption {
	return func(f *Facility) { f.now = now }
}

func WithPaymentProcessor(method PaymentMethod, processor PaymentProcessor) FacilityOption {
	return func(f *Facility) { f.processors[method] = processor }
}

// Facility owns the slot registry, the active ticket table and the bill
// ledger. mu guards the registry and the active tickets; the ledger has its
// own lock and is never taken while mu is held. exitMu is held shared by
// every exit from ticket close to bill creation and exclusively by
// Configure, so a bill from the old layout never lands in a fresh ledger.
// Lock order: exitMu, then mu, then the ledger.
type Facility struct {
	exitMu   sync.RWMutex
	mu       sync.RWMutex
	registry *SlotRegistry
	active   map[TicketID]*Ticket

	ticketing *Ticketing
	billing   *Billing

	fees              FeeSchedule
	lostTicketPenalty int64
	processors        map[PaymentMethod]PaymentProcessor
	now               func() time.Time
}

func NewFacility(opts ...FacilityOption) *Facility {
	f := &Facility{
		active:            make(map[TicketID]*Ticket),
		fees:              DefaultFeeSchedule(),
		lostTicketPenalty: DefaultLostTicketPenalty,
		processors:        DefaultProcessors(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.ticketing = NewTicketing(f.now)
	f.billing = NewBilling(f.processors, f.now)

	return f
}

// Configure installs a new layout and wipes every ticket and bill. It waits
// for exits that are still writing their bill.
func (f *Facility) Configure(floors []*Floor) error {
	_, _, err := f.configure(floors)
	return err
}

// configure returns the slot counts just before and just after the swap,
// both read under the same lock as the swap itself.
func (f *Facility) configure(floors []*Floor) (before, after SlotCounts, err error) {
	if err := validateFloors(floors); err != nil {
		return SlotCounts{}, SlotCounts{}, err
	}

	f.exitMu.Lock()
	defer f.exitMu.Unlock()

	f.mu.Lock()
	if f.registry != nil {
		before = f.registry.Counts()
	}

	for _, floor := range floors {
		for _, slot := range floor.Slots {
			slot.Free()
		}
	}

	f.registry = NewSlotRegistry(floors)
	f.active = make(map[TicketID]*Ticket)
	f.ticketing.Reset()
	after = f.registry.Counts()
	f.mu.Unlock()

	f.billing.Reset()

	return before, after, nil
}

func validateFloors(floors []*Floor) error {
	if len(floors) == 0 {
		return fmt.Errorf("%w: layout has zero floors", ErrInvalidLayout)
	}

	seen := make(map[string]bool)
	for _, floor := range floors {
		if len(floor.Slots) == 0 {
			return fmt.Errorf("%w: floor %d has no slots", ErrInvalidLayout, floor.Number)
		}
		for _, slot := range floor.Slots {
			if slot.ID == "" {
				return fmt.Errorf("%w: floor %d has a slot without id", ErrInvalidLayout, floor.Number)
			}
			if seen[slot.ID] {
				return fmt.Errorf("%w: duplicate slot id %q", ErrInvalidLayout, slot.ID)
			}
			seen[slot.ID] = true
		}
	}
	return nil
}

func (f *Facility) Configured() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.registry != nil
}

// EnterVehicle claims the first free slot matching the vehicle and opens a
// ticket for it. When nothing is free it returns ErrNoCapacity and changes nothing.
func (f *Facility) EnterVehicle(gate string, vehicle *Vehicle) (Ticket, error) {
	category, err := vehicle.Category.SlotCategory()
	if err != nil {
		return Ticket{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registry == nil {
		return Ticket{}, ErrNotConfigured
	}

	slot, ok := f.registry.FindFree(category)
	if !ok {
		return Ticket{}, fmt.Errorf("%w: no %s slot for %s", ErrNoCapacity, category, vehicle.RegistrationNumber)
	}

	f.registry.Occupy(slot)
	ticket := f.ticketing.Open(gate, slot, vehicle)
	f.active[ticket.ID] = &ticket

	return ticket, nil
}

// ExitVehicle closes a ticket, frees its slot and bills the stay. A second
// exit for the same ticket fails with ErrTicketNotFound.
func (f *Facility) ExitVehicle(ticketID TicketID, gate string, lostTicket bool) (Bill, error) {
	f.exitMu.RLock()
	defer f.exitMu.RUnlock()

	ticket, exitTime, fb, err := f.closeTicket(ticketID, lostTicket)
	if err != nil {
		return Bill{}, err
	}

	return f.billing.CreateBill(ticket, gate, exitTime, fb), nil
}

func (f *Facility) closeTicket(ticketID TicketID, lostTicket bool) (Ticket, time.Time, FeeBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ticket, ok := f.active[ticketID]
	if !ok {
		return Ticket{}, time.Time{}, FeeBreakdown{}, fmt.Errorf("%w: %d", ErrTicketNotFound, ticketID)
	}

	slot, ok := f.registry.FindByID(ticket.SlotID)
	if !ok {
		return Ticket{}, time.Time{}, FeeBreakdown{}, fmt.Errorf("%w: ticket %d slot %s", ErrSlotMissing, ticket.ID, ticket.SlotID)
	}

	exitTime := f.now()
	minutes := int64(exitTime.Sub(ticket.EntryTime) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}

	fb, err := f.fees.Compute(ticket.SlotCategory, minutes)
	if err != nil {
		return Ticket{}, time.Time{}, FeeBreakdown{}, err
	}

	if lostTicket {
		fb.Penalty = f.lostTicketPenalty
		fb.Amount += f.lostTicketPenalty
		fb.LostTicket = true
	}

	delete(f.active, ticketID)
	f.registry.Free(slot)

	return *ticket, exitTime, fb, nil
}

func (f *Facility) PayBill(ctx context.Context, req PaymentRequest) (Receipt, error) {
	return f.billing.Pay(ctx, req)
}

func (f *Facility) CancelBill(id BillID) error {
	return f.billing.Cancel(id)
}

func (f *Facility) GetBill(id BillID) (Bill, bool) {
	return f.billing.GetBill(id)
}

func (f *Facility) Bills() []Bill {
	return f.billing.Bills()
}

func (f *Facility) Occupancy() SlotCounts {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.registry == nil {
		return SlotCounts{}
	}
	return f.registry.Counts()
}

func (f *Facility) OccupancyByCategory() map[SlotCategory]SlotCounts {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.registry == nil {
		return map[SlotCategory]SlotCounts{}
	}
	return f.registry.CountsByCategory()
}

func (f *Facility) ActiveTicketCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.active)
}

func (f *Facility) ActiveTickets() []Ticket {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tickets := make([]Ticket, 0, len(f.active))
	for _, ticket := range f.active {
		tickets = append(tickets, *ticket)
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].ID < tickets[j].ID
	})

	return tickets
}

func (f *Facility) GetTicket(id TicketID) (Ticket, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ticket, ok := f.active[id]
	if !ok {
		return Ticket{}, false
	}
	return *ticket, true
}

func (f *Facility) FindTicketByRegistration(registrationNumber string) (Ticket, error) {
	for _, ticket := range f.ActiveTickets() {
		if ticket.RegistrationNumber == registrationNumber {
			return ticket, nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: no active ticket for %s", ErrTicketNotFound, registrationNumber)
}

// BackdateTicket moves a ticket's entry time into the past. It exists for
// demos and tests that need a long stay without waiting for one.
func (f *Facility) BackdateTicket(id TicketID, minutes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ticket, ok := f.active[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	ticket.EntryTime = ticket.EntryTime.Add(-time.Duration(minutes) * time.Minute)
	return nil
}

// CheckConsistency verifies that occupied slots and active tickets match one
// to one.
func (f *Facility) CheckConsistency() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.registry == nil {
		if len(f.active) > 0 {
			return fmt.Errorf("%w: %d tickets without a layout", ErrSlotMissing, len(f.active))
		}
		return nil
	}

	holders := make(map[string]TicketID, len(f.active))
	for id, ticket := range f.active {
		slot, ok := f.registry.FindByID(ticket.SlotID)
		if !ok {
			return fmt.Errorf("%w: ticket %d slot %s", ErrSlotMissing, id, ticket.SlotID)
		}
		if !slot.IsOccupied {
			return fmt.Errorf("ticket %d holds free slot %s", id, slot.ID)
		}
		if other, dup := holders[slot.ID]; dup {
			return fmt.Errorf("slot %s held by tickets %d and %d", slot.ID, other, id)
		}
		holders[slot.ID] = id
	}

	for _, floor := range f.registry.Floors() {
		for _, slot := range floor.Slots {
			if _, held := holders[slot.ID]; slot.IsOccupied && !held {
				return fmt.Errorf("slot %s occupied without an active ticket", slot.ID)
			}
		}
	}

	return nil
}
