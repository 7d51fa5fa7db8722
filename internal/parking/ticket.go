package parking

import (
	"sync/atomic"
	"time"
)

type TicketID uint64

type Ticket struct {
	ID                 TicketID        `json:"id"`
	EntryGate          string          `json:"entry_gate"`
	EntryTime          time.Time       `json:"entry_time"`
	SlotID             string          `json:"slot_id"`
	RegistrationNumber string          `json:"registration_number"`
	VehicleCategory    VehicleCategory `json:"vehicle_category"`
	SlotCategory       SlotCategory    `json:"slot_category"`
}

// Ticketing issues tickets. Open only touches the id counter, so it is safe
// to call without the facility lock.
type Ticketing struct {
	lastID atomic.Uint64
	now    func() time.Time
}

func NewTicketing(now func() time.Time) *Ticketing {
	if now == nil {
		now = time.Now
	}
	return &Ticketing{now: now}
}

func (t *Ticketing) Open(gate string, slot *Slot, vehicle *Vehicle) Ticket {
	return Ticket{
		ID:                 TicketID(t.lastID.Add(1)),
		EntryGate:          gate,
		EntryTime:          t.now(),
		SlotID:             slot.ID,
		RegistrationNumber: vehicle.RegistrationNumber,
		VehicleCategory:    vehicle.Category,
		SlotCategory:       slot.Category,
	}
}

func (t *Ticketing) Reset() {
	t.lastID.Store(0)
}
