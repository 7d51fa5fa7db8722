package parking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketingOpen(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tk := NewTicketing(func() time.Time { return at })

	slot := NewSlot("F1-C1", FourWheeler)
	ticket := tk.Open("E1", slot, NewVehicle("DL8CAF1234", Car))

	assert.Equal(t, TicketID(1), ticket.ID)
	assert.Equal(t, "E1", ticket.EntryGate)
	assert.Equal(t, at, ticket.EntryTime)
	assert.Equal(t, "F1-C1", ticket.SlotID)
	assert.Equal(t, "DL8CAF1234", ticket.RegistrationNumber)
	assert.Equal(t, Car, ticket.VehicleCategory)
	assert.Equal(t, FourWheeler, ticket.SlotCategory)
	assert.False(t, slot.IsOccupied, "opening a ticket must not touch the slot")
}

func TestTicketingIDsAreUniqueUnderConcurrency(t *testing.T) {
	tk := NewTicketing(nil)
	slot := NewSlot("S", TwoWheeler)
	vehicle := NewVehicle("UP80HM8086", Bike)

	const n = 200
	ids := make(chan TicketID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- tk.Open("E1", slot, vehicle).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[TicketID]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate ticket id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	next := tk.Open("E1", slot, vehicle)
	assert.Equal(t, TicketID(n+1), next.ID)
}

func TestTicketingReset(t *testing.T) {
	tk := NewTicketing(nil)
	slot := NewSlot("S", TwoWheeler)
	vehicle := NewVehicle("UP80HM8086", Bike)

	tk.Open("E1", slot, vehicle)
	tk.Open("E1", slot, vehicle)
	tk.Reset()

	assert.Equal(t, TicketID(1), tk.Open("E1", slot, vehicle).ID)
}
