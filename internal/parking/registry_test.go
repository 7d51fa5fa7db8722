package parking

import "testing"

func newTestRegistry() *SlotRegistry {
	return NewSlotRegistry([]*Floor{
		NewFloor(0,
			NewSlot("G-B1", TwoWheeler),
			NewSlot("G-C1", FourWheeler),
		),
		NewFloor(1,
			NewSlot("F1-B1", TwoWheeler),
			NewSlot("F1-C1", FourWheeler),
			NewSlot("F1-H1", Heavy),
		),
	})
}

func TestSlotRegistryFindFreeOrder(t *testing.T) {
	r := newTestRegistry()

	slot, ok := r.FindFree(TwoWheeler)
	if !ok {
		t.Fatal("Expected a free two-wheeler slot")
	}
	if slot.ID != "G-B1" {
		t.Errorf("Expected G-B1, got %s", slot.ID)
	}

	r.Occupy(slot)

	slot, ok = r.FindFree(TwoWheeler)
	if !ok {
		t.Fatal("Expected a second free two-wheeler slot")
	}
	if slot.ID != "F1-B1" {
		t.Errorf("Expected F1-B1, got %s", slot.ID)
	}

	r.Occupy(slot)

	if _, ok := r.FindFree(TwoWheeler); ok {
		t.Error("Expected two-wheeler slots to be exhausted")
	}
}

func TestSlotRegistryFreeReusesEarliestSlot(t *testing.T) {
	r := newTestRegistry()

	first, _ := r.FindFree(FourWheeler)
	r.Occupy(first)
	second, _ := r.FindFree(FourWheeler)
	r.Occupy(second)

	r.Free(first)

	slot, ok := r.FindFree(FourWheeler)
	if !ok {
		t.Fatal("Expected a free four-wheeler slot")
	}
	if slot.ID != first.ID {
		t.Errorf("Expected to reuse %s, got %s", first.ID, slot.ID)
	}
}

func TestSlotRegistryFindByID(t *testing.T) {
	r := newTestRegistry()

	slot, ok := r.FindByID("F1-H1")
	if !ok {
		t.Fatal("Expected to find F1-H1")
	}
	if slot.Category != Heavy {
		t.Errorf("Expected Heavy, got %s", slot.Category)
	}

	if _, ok := r.FindByID("NOPE"); ok {
		t.Error("Expected unknown slot id to be absent")
	}
}

func TestSlotRegistryCounts(t *testing.T) {
	r := newTestRegistry()

	slot, _ := r.FindFree(Heavy)
	r.Occupy(slot)

	c := r.Counts()
	if c.Total != 5 || c.Used != 1 || c.Free != 4 {
		t.Errorf("Expected 4/1/5, got %d/%d/%d", c.Free, c.Used, c.Total)
	}

	byCat := r.CountsByCategory()
	if byCat[Heavy].Used != 1 || byCat[Heavy].Total != 1 {
		t.Errorf("Expected heavy 1 used of 1, got %+v", byCat[Heavy])
	}
	if byCat[TwoWheeler].Free != 2 {
		t.Errorf("Expected 2 free two-wheeler slots, got %d", byCat[TwoWheeler].Free)
	}
}
