package parking

type Floor struct {
	Number int
	Slots  []*Slot
}

func NewFloor(number int, slots ...*Slot) *Floor {
	return &Floor{
		Number: number,
		Slots:  slots,
	}
}

func (f *Floor) findFree(category SlotCategory) *Slot {
	for _, slot := range f.Slots {
		if slot.Category == category && !slot.IsOccupied {
			return slot
		}
	}
	return nil
}

type SlotCounts struct {
	Free  int `json:"free"`
	Used  int `json:"used"`
	Total int `json:"total"`
}

// SlotRegistry is the facility layout. It does no locking of its own; every
// call must happen while the owning Facility holds its lock.
type SlotRegistry struct {
	floors []*Floor
	byID   map[string]*Slot
}

func NewSlotRegistry(floors []*Floor) *SlotRegistry {
	byID := make(map[string]*Slot)
	for _, floor := range floors {
		for _, slot := range floor.Slots {
			byID[slot.ID] = slot
		}
	}

	return &SlotRegistry{
		floors: floors,
		byID:   byID,
	}
}

// FindFree scans floors in order, then slots in order, and returns the first
// unoccupied slot of the category.
func (r *SlotRegistry) FindFree(category SlotCategory) (*Slot, bool) {
	for _, floor := range r.floors {
		if slot := floor.findFree(category); slot != nil {
			return slot, true
		}
	}
	return nil, false
}

func (r *SlotRegistry) FindByID(id string) (*Slot, bool) {
	slot, ok := r.byID[id]
	return slot, ok
}

func (r *SlotRegistry) Occupy(slot *Slot) {
	slot.Occupy()
}

func (r *SlotRegistry) Free(slot *Slot) {
	slot.Free()
}

func (r *SlotRegistry) Floors() []*Floor {
	return r.floors
}

func (r *SlotRegistry) Counts() SlotCounts {
	var c SlotCounts
	for _, floor := range r.floors {
		for _, slot := range floor.Slots {
			c.Total++
			if slot.IsOccupied {
				c.Used++
			} else {
				c.Free++
			}
		}
	}
	return c
}

func (r *SlotRegistry) CountsByCategory() map[SlotCategory]SlotCounts {
	counts := make(map[SlotCategory]SlotCounts, len(SlotCategories))
	for _, floor := range r.floors {
		for _, slot := range floor.Slots {
			c := counts[slot.Category]
			c.Total++
			if slot.IsOccupied {
				c.Used++
			} else {
				c.Free++
			}
			counts[slot.Category] = c
		}
	}
	return counts
}
