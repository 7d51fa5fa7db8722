package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// throttlingAPI answers the facility routes and rejects the first calls to
// each route with the given status.
type throttlingAPI struct {
	rejectStatus int
	rejectExit   int64
	rejectPay    int64

	enterCalls atomic.Int64
	exitCalls  atomic.Int64
	payCalls   atomic.Int64
}

func (a *throttlingAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/facility/enter", func(w http.ResponseWriter, r *http.Request) {
		a.enterCalls.Add(1)
		writeEnvelope(w, http.StatusOK, map[string]any{"id": 7})
	})
	mux.HandleFunc("POST /api/facility/exit", func(w http.ResponseWriter, r *http.Request) {
		if a.exitCalls.Add(1) <= a.rejectExit {
			writeError(w, a.rejectStatus, "Rate limit exceeded")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"id": 3, "amount": 40})
	})
	mux.HandleFunc("POST /api/facility/bills/3/pay", func(w http.ResponseWriter, r *http.Request) {
		if a.payCalls.Add(1) <= a.rejectPay {
			writeError(w, a.rejectStatus, "Rate limit exceeded")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"bill_id": 3, "amount": 40})
	})
	return mux
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func TestDriveRetriesThrottledExitAndPay(t *testing.T) {
	api := &throttlingAPI{rejectStatus: http.StatusTooManyRequests, rejectExit: 2, rejectPay: 1}
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	var st stats
	err := drive(t.Context(), ts.Client(), ts.URL+"/api/facility", 10*time.Second, &st)
	require.NoError(t, err)

	assert.Equal(t, int64(1), api.enterCalls.Load())
	assert.Equal(t, int64(3), api.exitCalls.Load())
	assert.Equal(t, int64(2), api.payCalls.Load())

	assert.Equal(t, int64(1), st.entered.Load())
	assert.Equal(t, int64(1), st.exited.Load())
	assert.Equal(t, int64(1), st.paid.Load())
	assert.Equal(t, int64(3), st.retries.Load())
	assert.Equal(t, int64(40), st.revenue.Load())
}

func TestDriveDoesNotRetryClientErrors(t *testing.T) {
	api := &throttlingAPI{rejectStatus: http.StatusNotFound, rejectExit: 5}
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	var st stats
	err := drive(t.Context(), ts.Client(), ts.URL+"/api/facility", 10*time.Second, &st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	assert.Equal(t, int64(1), api.exitCalls.Load())
	assert.Zero(t, st.exited.Load())
	assert.Zero(t, st.retries.Load())
}
