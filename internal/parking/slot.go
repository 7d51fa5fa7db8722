package parking

import (
	"fmt"
	"strings"
)

type SlotCategory int

const (
	TwoWheeler SlotCategory = iota
	FourWheeler
	Heavy
)

var slotCategoryNames = map[SlotCategory]string{
	TwoWheeler:  "TwoWheeler",
	FourWheeler: "FourWheeler",
	Heavy:       "Heavy",
}

// SlotCategories lists every slot category in a fixed order.
var SlotCategories = []SlotCategory{TwoWheeler, FourWheeler, Heavy}

func (c SlotCategory) String() string {
	if name, ok := slotCategoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("SlotCategory(%d)", int(c))
}

func ParseSlotCategory(s string) (SlotCategory, error) {
	for c, name := range slotCategoryNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: slot category %q", ErrUnknownCategory, s)
}

type Slot struct {
	ID         string
	Category   SlotCategory
	IsOccupied bool
}

func NewSlot(id string, category SlotCategory) *Slot {
	return &Slot{
		ID:         id,
		Category:   category,
		IsOccupied: false,
	}
}

func (s *Slot) Occupy() {
	s.IsOccupied = true
}

func (s *Slot) Free() {
	s.IsOccupied = false
}

func (c SlotCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *SlotCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseSlotCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
