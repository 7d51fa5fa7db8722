package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

type Handler struct {
	facility    *parking.InstrumentedFacility
	serviceName string
	validate    *validator.Validate
}

func NewHandler(facility *parking.InstrumentedFacility, serviceName string) *Handler {
	return &Handler{
		facility:    facility,
		serviceName: serviceName,
		validate:    validator.New(),
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Service:    h.serviceName,
		Configured: h.facility.Configured(),
		Meta:       extractMeta(r.Context()),
	})
}

func (h *Handler) ConfigureFacility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var layout parking.Layout
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := layout.Validate(); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	floors, err := layout.BuildFloors()
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.facility.Configure(ctx, floors); err != nil {
		h.writeFacilityError(w, r, err)
		return
	}

	counts := h.facility.Facility.Occupancy()
	WriteSuccess(ctx, w, "Facility configured successfully", ConfigureResponse{
		Floors: len(floors),
		Slots:  counts.Total,
	})
}

func (h *Handler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireConfigured(w, r) {
		return
	}

	counts := h.facility.Occupancy(ctx)
	byCategory := make(map[string]parking.SlotCounts)
	for category, c := range h.facility.OccupancyByCategory() {
		byCategory[category.String()] = c
	}

	WriteSuccess(ctx, w, "Occupancy retrieved successfully", OccupancyResponse{
		SlotCounts:    counts,
		ByCategory:    byCategory,
		ActiveTickets: h.facility.ActiveTicketCount(),
	})
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireConfigured(w, r) {
		return
	}

	tickets := h.facility.ActiveTickets()
	WriteSuccess(ctx, w, "Active tickets retrieved successfully", TicketsResponse{
		Count:   len(tickets),
		Tickets: tickets,
	})
}

func (h *Handler) FindByRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireConfigured(w, r) {
		return
	}

	registration := chi.URLParam(r, "registration")
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	ticket, err := h.facility.FindTicketByRegistration(registration)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", ticket)
}

func (h *Handler) EnterVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireConfigured(w, r) {
		return
	}

	var req EnterRequest
	if !h.decode(w, r, &req) {
		return
	}

	category, err := parking.ParseVehicleCategory(req.VehicleType)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.facility.EnterVehicle(ctx, req.Gate, parking.NewVehicle(req.Registration, category))
	if err != nil {
		h.writeFacilityError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle entered successfully", ticket)
}

func (h *Handler) ExitVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireConfigured(w, r) {
		return
	}

	var req ExitRequest
	if !h.decode(w, r, &req) {
		return
	}

	bill, err := h.facility.ExitVehicle(ctx, parking.TicketID(req.TicketID), req.Gate, req.LostTicket)
	if err != nil {
		h.writeFacilityError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle exited successfully", bill)
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.billID(w, r)
	if !ok {
		return
	}

	bill, found := h.facility.GetBill(id)
	if !found {
		WriteError(ctx, w, http.StatusNotFound, fmt.Sprintf("Bill %d not found", id))
		return
	}

	WriteSuccess(ctx, w, "Bill retrieved successfully", bill)
}

func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.billID(w, r)
	if !ok {
		return
	}

	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Method = strings.ToLower(req.Method)
	if err := h.validate.Struct(req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	method, err := parking.ParsePaymentMethod(req.Method)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	bill, found := h.facility.GetBill(id)
	if !found {
		WriteError(ctx, w, http.StatusNotFound, fmt.Sprintf("Bill %d not found", id))
		return
	}

	receipt, err := h.facility.PayBill(ctx, parking.PaymentRequest{
		BillID:     id,
		Amount:     bill.Amount,
		Method:     method,
		CardNumber: req.CardNumber,
		UPIHandle:  req.UPIHandle,
	})
	if err != nil {
		h.writeFacilityError(w, r, err)
		return
	}

	message := "Bill paid successfully"
	if receipt.Replayed {
		message = "Bill already paid"
	}
	WriteSuccess(ctx, w, message, receipt)
}

func (h *Handler) CancelBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.billID(w, r)
	if !ok {
		return
	}

	if err := h.facility.CancelBill(ctx, id); err != nil {
		h.writeFacilityError(w, r, err)
		return
	}

	bill, _ := h.facility.GetBill(id)
	WriteSuccess(ctx, w, "Bill cancelled successfully", bill)
}

func (h *Handler) requireConfigured(w http.ResponseWriter, r *http.Request) bool {
	if h.facility.Configured() {
		return true
	}
	WriteError(r.Context(), w, http.StatusBadRequest, "Facility not configured. Configure the facility first")
	return false
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (h *Handler) billID(w http.ResponseWriter, r *http.Request) (parking.BillID, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		WriteError(r.Context(), w, http.StatusBadRequest, "Invalid bill id")
		return 0, false
	}
	return parking.BillID(id), true
}

func (h *Handler) writeFacilityError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error(ctx, "facility operation failed",
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}
	WriteError(ctx, w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrNoCapacity):
		return http.StatusConflict
	case errors.Is(err, parking.ErrTicketNotFound), errors.Is(err, parking.ErrBillNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, parking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, parking.ErrNotConfigured),
		errors.Is(err, parking.ErrInvalidLayout),
		errors.Is(err, parking.ErrUnknownCategory),
		errors.Is(err, parking.ErrUnsupportedMethod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
