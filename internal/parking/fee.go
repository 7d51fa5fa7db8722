package parking

import "fmt"

const (
	DefaultGraceMinutes      = 10
	DefaultTwoWheelerRate    = 10
	DefaultFourWheelerRate   = 20
	DefaultHeavyRate         = 50
	DefaultLostTicketPenalty = 200
)

// FeeBreakdown amounts are whole INR.
type FeeBreakdown struct {
	ParkedMinutes int64 `json:"parked_minutes"`
	BilledHours   int64 `json:"billed_hours"`
	Amount        int64 `json:"amount"`
	Penalty       int64 `json:"penalty"`
	LostTicket    bool  `json:"lost_ticket"`
}

type FeePolicy interface {
	Compute(parkedMinutes int64) FeeBreakdown
}

// HourlyFee charges nothing within the grace window, then RatePerHour for
// every started hour.
type HourlyFee struct {
	RatePerHour  int64
	GraceMinutes int64
}

func (f HourlyFee) Compute(parkedMinutes int64) FeeBreakdown {
	if parkedMinutes < 0 {
		parkedMinutes = 0
	}

	fb := FeeBreakdown{ParkedMinutes: parkedMinutes}
	if parkedMinutes <= f.GraceMinutes {
		return fb
	}

	fb.BilledHours = ceilHours(parkedMinutes)
	fb.Amount = fb.BilledHours * f.RatePerHour
	return fb
}

func ceilHours(minutes int64) int64 {
	if minutes <= 0 {
		return 0
	}
	return (minutes + 59) / 60
}

type FeeSchedule map[SlotCategory]FeePolicy

func DefaultFeeSchedule() FeeSchedule {
	return NewHourlyFeeSchedule(DefaultGraceMinutes, map[SlotCategory]int64{
		TwoWheeler:  DefaultTwoWheelerRate,
		FourWheeler: DefaultFourWheelerRate,
		Heavy:       DefaultHeavyRate,
	})
}

func NewHourlyFeeSchedule(graceMinutes int64, rates map[SlotCategory]int64) FeeSchedule {
	schedule := make(FeeSchedule, len(rates))
	for category, rate := range rates {
		schedule[category] = HourlyFee{RatePerHour: rate, GraceMinutes: graceMinutes}
	}
	return schedule
}

func (s FeeSchedule) Compute(category SlotCategory, parkedMinutes int64) (FeeBreakdown, error) {
	policy, ok := s[category]
	if !ok {
		return FeeBreakdown{}, fmt.Errorf("%w: no fee policy for %s", ErrUnknownCategory, category)
	}
	return policy.Compute(parkedMinutes), nil
}
