package parking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyFeeGraceWindow(t *testing.T) {
	schedule := DefaultFeeSchedule()

	for _, category := range SlotCategories {
		for minutes := int64(0); minutes <= DefaultGraceMinutes; minutes++ {
			fb, err := schedule.Compute(category, minutes)
			require.NoError(t, err)
			assert.Zero(t, fb.Amount, "%s at %d minutes", category, minutes)
			assert.Zero(t, fb.BilledHours, "%s at %d minutes", category, minutes)
			assert.Equal(t, minutes, fb.ParkedMinutes)
		}
	}
}

func TestHourlyFeeRoundsPartialHoursUp(t *testing.T) {
	rates := map[SlotCategory]int64{
		TwoWheeler:  DefaultTwoWheelerRate,
		FourWheeler: DefaultFourWheelerRate,
		Heavy:       DefaultHeavyRate,
	}
	schedule := DefaultFeeSchedule()

	for category, rate := range rates {
		for minutes := int64(DefaultGraceMinutes + 1); minutes <= 24*60; minutes += 7 {
			fb, err := schedule.Compute(category, minutes)
			require.NoError(t, err)

			wantHours := (minutes + 59) / 60
			assert.Equal(t, wantHours, fb.BilledHours, "%s at %d minutes", category, minutes)
			assert.Equal(t, wantHours*rate, fb.Amount, "%s at %d minutes", category, minutes)
		}
	}
}

func TestHourlyFeeExamples(t *testing.T) {
	cases := []struct {
		name      string
		category  SlotCategory
		minutes   int64
		wantHours int64
		wantFee   int64
	}{
		{"bike 95 minutes", TwoWheeler, 95, 2, 20},
		{"car within grace", FourWheeler, 7, 0, 0},
		{"car 30 minutes", FourWheeler, 30, 1, 20},
		{"car exactly one hour", FourWheeler, 60, 1, 20},
		{"car one hour and a minute", FourWheeler, 61, 2, 40},
		{"truck three hours", Heavy, 180, 3, 150},
	}

	schedule := DefaultFeeSchedule()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb, err := schedule.Compute(tc.category, tc.minutes)
			require.NoError(t, err)
			assert.Equal(t, tc.wantHours, fb.BilledHours)
			assert.Equal(t, tc.wantFee, fb.Amount)
		})
	}
}

func TestHourlyFeeNegativeMinutesClampToZero(t *testing.T) {
	fb := HourlyFee{RatePerHour: 20, GraceMinutes: 10}.Compute(-30)
	assert.Equal(t, FeeBreakdown{}, fb)
}

func TestHourlyFeeIsMonotonic(t *testing.T) {
	policy := HourlyFee{RatePerHour: 20, GraceMinutes: 10}
	prev := policy.Compute(0).Amount
	for minutes := int64(1); minutes <= 600; minutes++ {
		cur := policy.Compute(minutes).Amount
		assert.GreaterOrEqual(t, cur, prev, "fee dropped at %d minutes", minutes)
		prev = cur
	}
}

func TestFeeScheduleUnknownCategory(t *testing.T) {
	schedule := FeeSchedule{TwoWheeler: HourlyFee{RatePerHour: 10}}

	_, err := schedule.Compute(Heavy, 120)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}
