package parking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/logging"
)

type InstrumentedFacility struct {
	*Facility
	telemetry *TelemetryProvider

	// Metrics
	entryOperations   metric.Int64Counter
	exitOperations    metric.Int64Counter
	paymentOperations metric.Int64Counter
	revenue           metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	totalSlotsGauge   metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedFacility(facility *Facility, telemetry *TelemetryProvider) (*InstrumentedFacility, error) {
	meter := telemetry.Meter()

	entryOperations, err := meter.Int64Counter("parking_entries_total",
		metric.WithDescription("Total number of vehicle entry attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("parking_exits_total",
		metric.WithDescription("Total number of vehicle exit attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	paymentOperations, err := meter.Int64Counter("parking_payments_total",
		metric.WithDescription("Total number of bill payment attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("parking_revenue_total",
		metric.WithDescription("Amount collected from paid bills"),
		metric.WithUnit("INR"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_facility_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_facility_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of facility operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedFacility{
		Facility:          facility,
		telemetry:         telemetry,
		entryOperations:   entryOperations,
		exitOperations:    exitOperations,
		paymentOperations: paymentOperations,
		revenue:           revenue,
		occupancyGauge:    occupancyGauge,
		totalSlotsGauge:   totalSlotsGauge,
		operationDuration: operationDuration,
	}, nil
}

func (f *InstrumentedFacility) Configure(ctx context.Context, floors []*Floor) error {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.configure",
		trace.WithAttributes(attribute.Int("facility.floors", len(floors))))
	defer span.End()

	start := time.Now()

	before, after, err := f.Facility.configure(floors)

	status := "success"
	if err != nil {
		recordSpanError(span, err)
		status = "failed"
	} else {
		f.totalSlotsGauge.Add(ctx, int64(after.Total-before.Total))
		f.occupancyGauge.Add(ctx, int64(after.Used-before.Used))
		span.SetAttributes(attribute.Int("facility.total_slots", after.Total))
		logging.Info(ctx, "facility configured",
			slog.Int("floors", len(floors)),
			slog.Int("slots", after.Total),
		)
	}

	f.recordDuration(ctx, start, "configure", status)
	return err
}

func (f *InstrumentedFacility) EnterVehicle(ctx context.Context, gate string, vehicle *Vehicle) (Ticket, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.enter",
		trace.WithAttributes(
			attribute.String("gate.entry", gate),
			attribute.String("vehicle.registration_number", vehicle.RegistrationNumber),
			attribute.String("vehicle.category", vehicle.Category.String()),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_available_slot")

	ticket, err := f.Facility.EnterVehicle(gate, vehicle)

	labels := []attribute.KeyValue{
		attribute.String("vehicle_category", vehicle.Category.String()),
	}

	status := "success"
	switch {
	case errors.Is(err, ErrNoCapacity):
		status = "no_capacity"
		span.AddEvent("capacity_exhausted")
		span.SetStatus(codes.Error, err.Error())
		logging.Warn(ctx, "no free slot",
			slog.String("gate", gate),
			slog.String("registration", vehicle.RegistrationNumber),
			slog.String("category", vehicle.Category.String()),
		)
	case err != nil:
		status = "failed"
		recordSpanError(span, err)
	default:
		span.SetAttributes(
			attribute.Int64("ticket.id", int64(ticket.ID)),
			attribute.String("slot.id", ticket.SlotID),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.String("slot_id", ticket.SlotID),
		))
		f.occupancyGauge.Add(ctx, 1)
	}

	labels = append(labels, attribute.String("status", status))
	f.entryOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.recordDuration(ctx, start, "enter", status)

	return ticket, err
}

func (f *InstrumentedFacility) ExitVehicle(ctx context.Context, ticketID TicketID, gate string, lostTicket bool) (Bill, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.exit",
		trace.WithAttributes(
			attribute.Int64("ticket.id", int64(ticketID)),
			attribute.String("gate.exit", gate),
			attribute.Bool("ticket.lost", lostTicket),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("releasing_slot")

	bill, err := f.Facility.ExitVehicle(ticketID, gate, lostTicket)

	status := "success"
	switch {
	case errors.Is(err, ErrSlotMissing):
		status = "invariant_violation"
		recordSpanError(span, err)
		logging.Error(ctx, "ticket references a slot missing from the registry",
			slog.Uint64("ticket_id", uint64(ticketID)),
			slog.String("error", err.Error()),
		)
	case errors.Is(err, ErrTicketNotFound):
		status = "not_found"
		recordSpanError(span, err)
	case err != nil:
		status = "failed"
		recordSpanError(span, err)
	default:
		span.SetAttributes(
			attribute.Int64("bill.id", int64(bill.ID)),
			attribute.Int64("bill.amount", bill.Amount),
			attribute.Int64("bill.parked_minutes", bill.ParkedMinutes),
			attribute.String("slot.id", bill.SlotID),
		)
		span.AddEvent("slot_released")
		f.occupancyGauge.Add(ctx, -1)
	}

	labels := []attribute.KeyValue{
		attribute.String("status", status),
		attribute.Bool("lost_ticket", lostTicket),
	}
	if err == nil {
		labels = append(labels, attribute.String("slot_category", bill.SlotCategory.String()))
	}

	f.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.recordDuration(ctx, start, "exit", status)

	return bill, err
}

func (f *InstrumentedFacility) PayBill(ctx context.Context, req PaymentRequest) (Receipt, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.pay",
		trace.WithAttributes(
			attribute.Int64("bill.id", int64(req.BillID)),
			attribute.String("payment.method", req.Method.String()),
		))
	defer span.End()

	start := time.Now()

	receipt, err := f.Facility.PayBill(ctx, req)

	status := "success"
	switch {
	case errors.Is(err, ErrPaymentDeclined):
		status = "declined"
		span.AddEvent("payment_declined")
		span.SetStatus(codes.Error, err.Error())
	case errors.Is(err, ErrBillNotFound):
		status = "not_found"
		recordSpanError(span, err)
	case errors.Is(err, ErrInvalidTransition):
		status = "invalid_state"
		recordSpanError(span, err)
	case err != nil:
		status = "failed"
		recordSpanError(span, err)
	case receipt.Replayed:
		status = "replayed"
		span.AddEvent("already_paid")
	default:
		span.AddEvent("payment_captured")
		f.revenue.Add(ctx, receipt.Amount, metric.WithAttributes(
			attribute.String("method", receipt.Method),
		))
	}

	f.paymentOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", req.Method.String()),
		attribute.String("status", status),
	))
	f.recordDuration(ctx, start, "pay", status)

	return receipt, err
}

func (f *InstrumentedFacility) CancelBill(ctx context.Context, id BillID) error {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.cancel",
		trace.WithAttributes(attribute.Int64("bill.id", int64(id))))
	defer span.End()

	start := time.Now()

	err := f.Facility.CancelBill(id)

	status := "success"
	if err != nil {
		status = "failed"
		recordSpanError(span, err)
	}

	f.recordDuration(ctx, start, "cancel", status)
	return err
}

func (f *InstrumentedFacility) Occupancy(ctx context.Context) SlotCounts {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.occupancy")
	defer span.End()

	start := time.Now()

	counts := f.Facility.Occupancy()

	span.SetAttributes(
		attribute.Int("slots.free", counts.Free),
		attribute.Int("slots.used", counts.Used),
		attribute.Int("slots.total", counts.Total),
		attribute.Int("tickets.active", f.Facility.ActiveTicketCount()),
	)

	f.recordDuration(ctx, start, "occupancy", "success")
	return counts
}

func (f *InstrumentedFacility) recordDuration(ctx context.Context, start time.Time, operation, status string) {
	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
