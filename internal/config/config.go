package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"parking-facility/internal/parking"
)

type Config struct {
	Port            string
	Mode            string
	Environment     string
	LayoutPath      string
	OTelServiceName string
	OTelEndpoint    string
	GraceMinutes    int
	RateTwoWheeler  int
	RateFourWheeler int
	RateHeavy       int
	LostTicketFee   int
	CardMinLength   int
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads an optional .env file from the working directory, then the
// process environment. Variables already set win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	return &Config{
		Port:            envOr("APP_PORT", "8080"),
		Mode:            envOr("APP_MODE", "server"),
		Environment:     envOr("APP_ENV", "development"),
		LayoutPath:      os.Getenv("LAYOUT_PATH"),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", parking.DefaultServiceName),
		OTelEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", parking.DefaultOTLPEndpoint),
		GraceMinutes:    envOrInt("GRACE_MINUTES", parking.DefaultGraceMinutes),
		RateTwoWheeler:  envOrInt("RATE_TWO_WHEELER", parking.DefaultTwoWheelerRate),
		RateFourWheeler: envOrInt("RATE_FOUR_WHEELER", parking.DefaultFourWheelerRate),
		RateHeavy:       envOrInt("RATE_HEAVY", parking.DefaultHeavyRate),
		LostTicketFee:   envOrInt("LOST_TICKET_PENALTY", parking.DefaultLostTicketPenalty),
		CardMinLength:   envOrInt("CARD_MIN_LENGTH", parking.DefaultCardMinLength),
		RateLimitRPS:    envOrFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:  envOrInt("RATE_LIMIT_BURST", 100),
	}
}

// FacilityOptions turns the fee and payment settings into facility options.
func (c *Config) FacilityOptions() []parking.FacilityOption {
	schedule := parking.NewHourlyFeeSchedule(int64(c.GraceMinutes), map[parking.SlotCategory]int64{
		parking.TwoWheeler:  int64(c.RateTwoWheeler),
		parking.FourWheeler: int64(c.RateFourWheeler),
		parking.Heavy:       int64(c.RateHeavy),
	})

	return []parking.FacilityOption{
		parking.WithFeeSchedule(schedule),
		parking.WithLostTicketPenalty(int64(c.LostTicketFee)),
		parking.WithPaymentProcessor(parking.Card, parking.CardProcessor{MinLength: c.CardMinLength}),
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
