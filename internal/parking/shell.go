package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Shell struct {
	facility *InstrumentedFacility
	scanner  *bufio.Scanner
	out      io.Writer
}

func NewShell(facility *InstrumentedFacility, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		facility: facility,
		scanner:  bufio.NewScanner(in),
		out:      out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.facility.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit_shell" {
			break
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	if command != "configure" && !s.facility.Configured() {
		s.println("Facility not configured")
		return
	}

	switch command {
	case "configure":
		s.handleConfigure(ctx, parts)
	case "enter":
		s.handleEnter(ctx, parts)
	case "exit":
		s.handleExit(ctx, parts)
	case "pay":
		s.handlePay(ctx, parts)
	case "cancel":
		s.handleCancel(ctx, parts)
	case "bill":
		s.handleBill(parts)
	case "backdate":
		s.handleBackdate(parts)
	case "occupancy":
		s.handleOccupancy(ctx)
	case "status":
		s.handleStatus()
	case "find":
		s.handleFind(parts)
	default:
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) handleConfigure(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: configure <layout_file>")
		return
	}

	layout, err := LoadLayout(parts[1])
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	floors, err := layout.BuildFloors()
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	if err := s.facility.Configure(ctx, floors); err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	counts := s.facility.Facility.Occupancy()
	s.printf("Configured %d floors with %d slots\n", len(floors), counts.Total)
}

func (s *Shell) handleEnter(ctx context.Context, parts []string) {
	if len(parts) != 4 {
		s.println("Usage: enter <gate> <registration_number> <bike|car|truck>")
		return
	}

	category, err := ParseVehicleCategory(parts[3])
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	ticket, err := s.facility.EnterVehicle(ctx, parts[1], NewVehicle(parts[2], category))
	if err != nil {
		s.println(shellError(err))
		return
	}

	s.printf("Ticket %d: slot %s at %s\n", ticket.ID, ticket.SlotID, ticket.EntryTime.Format(time.RFC3339))
}

func (s *Shell) handleExit(ctx context.Context, parts []string) {
	if len(parts) != 3 && len(parts) != 4 {
		s.println("Usage: exit <ticket_id> <gate> [lost]")
		return
	}

	ticketID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		s.println("Invalid ticket id")
		return
	}

	lost := false
	if len(parts) == 4 {
		if !strings.EqualFold(parts[3], "lost") {
			s.println("Usage: exit <ticket_id> <gate> [lost]")
			return
		}
		lost = true
	}

	bill, err := s.facility.ExitVehicle(ctx, TicketID(ticketID), parts[2], lost)
	if err != nil {
		s.println(shellError(err))
		return
	}

	s.printBill(bill)
}

func (s *Shell) handlePay(ctx context.Context, parts []string) {
	if len(parts) != 3 && len(parts) != 4 {
		s.println("Usage: pay <bill_id> <cash|card|upi> [card_number|upi_handle]")
		return
	}

	billID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		s.println("Invalid bill id")
		return
	}

	method, err := ParsePaymentMethod(parts[2])
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	bill, ok := s.facility.GetBill(BillID(billID))
	if !ok {
		s.printf("Bill %d not found\n", billID)
		return
	}

	req := PaymentRequest{BillID: bill.ID, Amount: bill.Amount, Method: method}
	if len(parts) == 4 {
		switch method {
		case Card:
			req.CardNumber = parts[3]
		case UPI:
			req.UPIHandle = parts[3]
		}
	}

	receipt, err := s.facility.PayBill(ctx, req)
	if err != nil {
		s.println(shellError(err))
		return
	}

	s.printf("Paid bill %d: %d INR via %s at %s\n",
		receipt.BillID, receipt.Amount, receipt.Method, receipt.PaidAt.Format(time.RFC3339))
}

func (s *Shell) handleCancel(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: cancel <bill_id>")
		return
	}

	billID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		s.println("Invalid bill id")
		return
	}

	if err := s.facility.CancelBill(ctx, BillID(billID)); err != nil {
		s.println(shellError(err))
		return
	}

	s.printf("Bill %d cancelled\n", billID)
}

func (s *Shell) handleBill(parts []string) {
	if len(parts) != 2 {
		s.println("Usage: bill <bill_id>")
		return
	}

	billID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		s.println("Invalid bill id")
		return
	}

	bill, ok := s.facility.GetBill(BillID(billID))
	if !ok {
		s.printf("Bill %d not found\n", billID)
		return
	}

	s.printBill(bill)
}

func (s *Shell) handleBackdate(parts []string) {
	if len(parts) != 3 {
		s.println("Usage: backdate <ticket_id> <minutes>")
		return
	}

	ticketID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		s.println("Invalid ticket id")
		return
	}

	minutes, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || minutes < 0 {
		s.println("Invalid minutes")
		return
	}

	if err := s.facility.BackdateTicket(TicketID(ticketID), minutes); err != nil {
		s.println(shellError(err))
		return
	}

	s.printf("Ticket %d entry moved back %d minutes\n", ticketID, minutes)
}

func (s *Shell) handleOccupancy(ctx context.Context) {
	counts := s.facility.Occupancy(ctx)
	s.printf("Free: %d, Used: %d, Total: %d\n", counts.Free, counts.Used, counts.Total)

	byCategory := s.facility.OccupancyByCategory()
	for _, category := range SlotCategories {
		c, ok := byCategory[category]
		if !ok {
			continue
		}
		s.printf("  %s\tfree %d\tused %d\n", category, c.Free, c.Used)
	}
}

func (s *Shell) handleStatus() {
	tickets := s.facility.ActiveTickets()
	if len(tickets) == 0 {
		s.println("Facility is empty")
		return
	}

	s.println("Ticket\tSlot\tRegistration No\tCategory\tEntry")
	for _, t := range tickets {
		s.printf("%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.SlotID, t.RegistrationNumber, t.VehicleCategory, t.EntryTime.Format(time.RFC3339))
	}
}

func (s *Shell) handleFind(parts []string) {
	if len(parts) != 2 {
		s.println("Usage: find <registration_number>")
		return
	}

	ticket, err := s.facility.FindTicketByRegistration(parts[1])
	if err != nil {
		s.println("Not found")
		return
	}

	s.printf("Ticket %d: slot %s\n", ticket.ID, ticket.SlotID)
}

func (s *Shell) printBill(bill Bill) {
	s.printf("Bill %d: ticket %d, slot %s, %d min, %d h, amount %d INR",
		bill.ID, bill.TicketID, bill.SlotID, bill.ParkedMinutes, bill.BilledHours, bill.Amount)
	if bill.LostTicket {
		s.printf(" (includes %d lost-ticket penalty)", bill.Penalty)
	}
	s.printf(", status %s\n", bill.Status)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func shellError(err error) string {
	switch {
	case errors.Is(err, ErrNoCapacity):
		return "Sorry, no free slot for this vehicle"
	case errors.Is(err, ErrTicketNotFound):
		return "Invalid or already-closed ticket"
	case errors.Is(err, ErrBillNotFound):
		return "Bill not found"
	default:
		return "Error: " + err.Error()
	}
}
