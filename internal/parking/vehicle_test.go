package parking

import (
	"errors"
	"testing"
)

func TestNewVehicle(t *testing.T) {
	regNumber := "KA01HH1234"

	vehicle := NewVehicle(regNumber, Car)

	if vehicle.RegistrationNumber != regNumber {
		t.Errorf("Expected registration number %s, got %s", regNumber, vehicle.RegistrationNumber)
	}

	if vehicle.Category != Car {
		t.Errorf("Expected category %s, got %s", Car, vehicle.Category)
	}
}

func TestVehicleCategorySlotCategory(t *testing.T) {
	cases := map[VehicleCategory]SlotCategory{
		Bike:  TwoWheeler,
		Car:   FourWheeler,
		Truck: Heavy,
	}

	for vc, want := range cases {
		got, err := vc.SlotCategory()
		if err != nil {
			t.Errorf("Unexpected error for %s: %s", vc, err.Error())
		}
		if got != want {
			t.Errorf("Expected %s for %s, got %s", want, vc, got)
		}
	}

	if _, err := VehicleCategory(42).SlotCategory(); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestParseVehicleCategory(t *testing.T) {
	for _, in := range []string{"bike", "Bike", "BIKE"} {
		c, err := ParseVehicleCategory(in)
		if err != nil {
			t.Errorf("Unexpected error for %q: %s", in, err.Error())
		}
		if c != Bike {
			t.Errorf("Expected Bike for %q, got %s", in, c)
		}
	}

	if _, err := ParseVehicleCategory("hovercraft"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}
