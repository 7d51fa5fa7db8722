package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

type Config struct {
	Port           string
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	httpServer *http.Server
	handler    *Handler
	limiters   *LimiterStore
	stop       context.CancelFunc
}

func NewServer(cfg Config, facility *parking.InstrumentedFacility) *Server {
	handler := NewHandler(facility, cfg.ServiceName)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(TracingMiddleware)
	r.Use(CORSMiddleware)

	var limiters *LimiterStore
	stop := func() {}
	if cfg.RateLimitRPS > 0 {
		limiters = NewLimiterStore(cfg.RateLimitRPS, cfg.RateLimitBurst)

		ctx, cancel := context.WithCancel(context.Background())
		limiters.StartJanitor(ctx)
		stop = cancel
	}

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(newRegistry(facility.Facility), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/facility", func(r chi.Router) {
		if limiters != nil {
			r.Use(RateLimitMiddleware(limiters))
		}

		r.Post("/", handler.ConfigureFacility)
		r.Get("/occupancy", handler.GetOccupancy)
		r.Get("/tickets", handler.ListTickets)
		r.Get("/find/{registration}", handler.FindByRegistration)
		r.Post("/enter", handler.EnterVehicle)
		r.Post("/exit", handler.ExitVehicle)

		r.Route("/bills/{id}", func(r chi.Router) {
			r.Get("/", handler.GetBill)
			r.Post("/pay", handler.PayBill)
			r.Post("/cancel", handler.CancelBill)
		})
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		limiters:   limiters,
		stop:       stop,
	}
}

// newRegistry exposes the facility state as scrape-time gauges. Each server
// gets its own registry so several can live in one process.
func newRegistry(facility *parking.Facility) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_slots_free",
			Help: "Number of free parking slots.",
		}, func() float64 { return float64(facility.Occupancy().Free) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_slots_used",
			Help: "Number of occupied parking slots.",
		}, func() float64 { return float64(facility.Occupancy().Used) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_slots_total",
			Help: "Total number of parking slots.",
		}, func() float64 { return float64(facility.Occupancy().Total) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_active_tickets",
			Help: "Number of vehicles currently inside the facility.",
		}, func() float64 { return float64(facility.ActiveTicketCount()) }),
	)
	return reg
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	s.stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
