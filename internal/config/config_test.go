package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-facility/internal/parking"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.LayoutPath)
	assert.Equal(t, "parking-facility-service", cfg.OTelServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTelEndpoint)
	assert.Equal(t, 10, cfg.GraceMinutes)
	assert.Equal(t, 10, cfg.RateTwoWheeler)
	assert.Equal(t, 20, cfg.RateFourWheeler)
	assert.Equal(t, 50, cfg.RateHeavy)
	assert.Equal(t, 200, cfg.LostTicketFee)
	assert.Equal(t, 8, cfg.CardMinLength)
	assert.InDelta(t, 50.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_MODE", "both")
	t.Setenv("LAYOUT_PATH", "/etc/parking/layout.yaml")
	t.Setenv("GRACE_MINUTES", "15")
	t.Setenv("RATE_HEAVY", "80")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "both", cfg.Mode)
	assert.Equal(t, "/etc/parking/layout.yaml", cfg.LayoutPath)
	assert.Equal(t, 15, cfg.GraceMinutes)
	assert.Equal(t, 80, cfg.RateHeavy)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.001)
}

func TestInvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("GRACE_MINUTES", "ten")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg := Load()

	assert.Equal(t, 10, cfg.GraceMinutes)
	assert.InDelta(t, 50.0, cfg.RateLimitRPS, 0.001)
}

func TestLoadReadsDotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_PORT=7070\nRATE_FOUR_WHEELER=25\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("RATE_FOUR_WHEELER", "30")

	cfg := Load()

	assert.Equal(t, "7070", cfg.Port)
	// the process environment wins over the file
	assert.Equal(t, 30, cfg.RateFourWheeler)
}

func TestFacilityOptionsApplyFees(t *testing.T) {
	t.Setenv("RATE_FOUR_WHEELER", "30")
	t.Setenv("GRACE_MINUTES", "0")
	t.Setenv("LOST_TICKET_PENALTY", "500")
	t.Setenv("CARD_MIN_LENGTH", "4")

	cfg := Load()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := start
	opts := append(cfg.FacilityOptions(), parking.WithClock(func() time.Time { return now }))
	f := parking.NewFacility(opts...)
	require.NoError(t, f.Configure([]*parking.Floor{
		parking.NewFloor(0, parking.NewSlot("C1", parking.FourWheeler)),
	}))

	ticket, err := f.EnterVehicle("E1", parking.NewVehicle("KA01", parking.Car))
	require.NoError(t, err)

	now = start.Add(5 * time.Minute)
	bill, err := f.ExitVehicle(ticket.ID, "X1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(530), bill.Amount)
	assert.Equal(t, int64(500), bill.Penalty)

	_, err = f.PayBill(t.Context(), parking.PaymentRequest{
		BillID:     bill.ID,
		Amount:     bill.Amount,
		Method:     parking.Card,
		CardNumber: "4242",
	})
	assert.NoError(t, err)
}
