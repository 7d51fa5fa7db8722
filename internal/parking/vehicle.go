package parking

import (
	"fmt"
	"strings"
)

type VehicleCategory int

const (
	Bike VehicleCategory = iota
	Car
	Truck
)

var vehicleCategoryNames = map[VehicleCategory]string{
	Bike:  "Bike",
	Car:   "Car",
	Truck: "Truck",
}

// slotFor maps each vehicle category to the only slot category it may occupy.
var slotFor = map[VehicleCategory]SlotCategory{
	Bike:  TwoWheeler,
	Car:   FourWheeler,
	Truck: Heavy,
}

func (c VehicleCategory) String() string {
	if name, ok := vehicleCategoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("VehicleCategory(%d)", int(c))
}

func (c VehicleCategory) SlotCategory() (SlotCategory, error) {
	sc, ok := slotFor[c]
	if !ok {
		return 0, fmt.Errorf("%w: vehicle category %d", ErrUnknownCategory, int(c))
	}
	return sc, nil
}

func ParseVehicleCategory(s string) (VehicleCategory, error) {
	for c, name := range vehicleCategoryNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: vehicle category %q", ErrUnknownCategory, s)
}

type Vehicle struct {
	RegistrationNumber string
	Category           VehicleCategory
}

func NewVehicle(registrationNumber string, category VehicleCategory) *Vehicle {
	return &Vehicle{
		RegistrationNumber: registrationNumber,
		Category:           category,
	}
}

func (c VehicleCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *VehicleCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
