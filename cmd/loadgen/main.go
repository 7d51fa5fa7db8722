package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// errRetryable marks a full facility (409) or a throttled request (429).
var errRetryable = errors.New("retryable response")

var vehicleTypes = []string{"bike", "car", "car", "car", "truck"}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type ticket struct {
	ID uint64 `json:"id"`
}

type bill struct {
	ID     uint64 `json:"id"`
	Amount int64  `json:"amount"`
}

type stats struct {
	entered  atomic.Int64
	exited   atomic.Int64
	paid     atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
	revenue  atomic.Int64
}

func cryptoRandIntn(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}

func main() {
	defaultURL := os.Getenv("API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080/api/facility"
	}

	var (
		apiURL   = flag.String("url", defaultURL, "Facility API base URL")
		layout   = flag.String("layout", "", "JSON layout to configure before the run (empty = keep current)")
		workers  = flag.Int("workers", 5, "Number of concurrent drivers")
		vehicles = flag.Int("vehicles", 20, "Vehicles per driver")
		maxWait  = flag.Duration("max-wait", 30*time.Second, "Longest a driver waits for a free slot")
	)
	flag.Parse()

	slog.Info("starting load generator",
		slog.String("url", *apiURL),
		slog.Int("workers", *workers),
		slog.Int("vehicles", *vehicles),
	)

	client := &http.Client{Timeout: 30 * time.Second}
	ctx := context.Background()

	if *layout != "" {
		body, err := os.ReadFile(*layout)
		if err != nil {
			slog.Error("failed to read layout", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if _, err := call(ctx, client, http.MethodPost, *apiURL+"/", body); err != nil {
			slog.Error("failed to configure facility", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var st stats
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := range *workers {
		g.Go(func() error {
			for range *vehicles {
				if err := drive(gctx, client, *apiURL, *maxWait, &st); err != nil {
					st.failures.Add(1)
					slog.Error("driver failed",
						slog.Int("worker", w),
						slog.String("error", err.Error()),
					)
				}
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("load generation aborted", slog.String("error", err.Error()))
	}

	slog.Info("load generation complete",
		slog.Int64("entered", st.entered.Load()),
		slog.Int64("exited", st.exited.Load()),
		slog.Int64("paid", st.paid.Load()),
		slog.Int64("retries", st.retries.Load()),
		slog.Int64("failures", st.failures.Load()),
		slog.Int64("revenue", st.revenue.Load()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// drive takes one vehicle through enter, exit and pay.
func drive(ctx context.Context, client *http.Client, apiURL string, maxWait time.Duration, st *stats) error {
	registration := "LG-" + strings.ToUpper(uuid.NewString()[:8])
	vehicleType := vehicleTypes[cryptoRandIntn(len(vehicleTypes))]

	enterBody, _ := json.Marshal(map[string]string{
		"gate":         fmt.Sprintf("E%d", cryptoRandIntn(3)+1),
		"registration": registration,
		"vehicle_type": vehicleType,
	})

	data, err := callWithRetry(ctx, client, http.MethodPost, apiURL+"/enter", enterBody, maxWait, st)
	if err != nil {
		return fmt.Errorf("enter %s: %w", registration, err)
	}

	var t ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	st.entered.Add(1)

	time.Sleep(time.Duration(cryptoRandIntn(200)) * time.Millisecond)

	exitBody, _ := json.Marshal(map[string]any{
		"ticket_id":   t.ID,
		"gate":        fmt.Sprintf("X%d", cryptoRandIntn(2)+1),
		"lost_ticket": cryptoRandIntn(50) == 0,
	})
	data, err = callWithRetry(ctx, client, http.MethodPost, apiURL+"/exit", exitBody, maxWait, st)
	if err != nil {
		return fmt.Errorf("exit ticket %d: %w", t.ID, err)
	}
	st.exited.Add(1)

	var b bill
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}

	payBody, _ := json.Marshal(paymentFor(cryptoRandIntn(3)))
	payURL := fmt.Sprintf("%s/bills/%d/pay", apiURL, b.ID)
	if _, err := callWithRetry(ctx, client, http.MethodPost, payURL, payBody, maxWait, st); err != nil {
		return fmt.Errorf("pay bill %d: %w", b.ID, err)
	}
	st.paid.Add(1)
	st.revenue.Add(b.Amount)

	return nil
}

func paymentFor(n int) map[string]string {
	switch n {
	case 0:
		return map[string]string{"method": "card", "card_number": "4111111111111111"}
	case 1:
		return map[string]string{"method": "upi", "upi_handle": "driver@okbank"}
	default:
		return map[string]string{"method": "cash"}
	}
}

// callWithRetry repeats a call with exponential backoff while the server
// answers 409 (full) or 429 (throttled). Any other failure ends it.
func callWithRetry(ctx context.Context, client *http.Client, method, url string, body []byte, maxWait time.Duration, st *stats) (json.RawMessage, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (json.RawMessage, error) {
		data, err := call(ctx, client, method, url, body)
		if errors.Is(err, errRetryable) {
			st.retries.Add(1)
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return data, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(maxWait),
	)
}

func call(ctx context.Context, client *http.Client, method, url string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict && strings.Contains(env.Error, "no free slot"):
		return nil, errRetryable
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRetryable
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, env.Error)
	}

	return env.Data, nil
}
