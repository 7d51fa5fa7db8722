package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Configured bool   `json:"configured"`
	Meta       *Meta  `json:"meta,omitempty"`
}

type EnterRequest struct {
	Gate         string `json:"gate" validate:"required"`
	Registration string `json:"registration" validate:"required"`
	VehicleType  string `json:"vehicle_type" validate:"required"`
}

type ExitRequest struct {
	TicketID   uint64 `json:"ticket_id" validate:"required,gt=0"`
	Gate       string `json:"gate" validate:"required"`
	LostTicket bool   `json:"lost_ticket"`
}

// PayRequest leaves credential checks to the processor so a bad card or VPA
// becomes a declined charge on the bill.
type PayRequest struct {
	Method     string `json:"method" validate:"required"`
	CardNumber string `json:"card_number,omitempty"`
	UPIHandle  string `json:"upi_handle,omitempty"`
}

type ConfigureResponse struct {
	Floors int `json:"floors"`
	Slots  int `json:"slots"`
}

type OccupancyResponse struct {
	parking.SlotCounts
	ByCategory    map[string]parking.SlotCounts `json:"by_category"`
	ActiveTickets int                           `json:"active_tickets"`
}

type TicketsResponse struct {
	Count   int              `json:"count"`
	Tickets []parking.Ticket `json:"tickets"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
