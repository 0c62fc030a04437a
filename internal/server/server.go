package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/mesas/internal/config"
	"github.com/me/mesas/internal/notify"
	"github.com/me/mesas/internal/reminder"
	"github.com/me/mesas/internal/scheduling"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// Server is the mesas REST API server.
type Server struct {
	router     chi.Router
	logger     *slog.Logger
	config     config.ServerConfig
	startTime  time.Time
	service    *scheduling.Service
	reminders  *reminder.Processor
	dispatcher *notify.Dispatcher
	push       *notify.Push // optional; nil disables subscription endpoints
	hub        *notify.Hub  // optional; nil disables /ws
	loop       *reminder.Loop
	admin      *AdminKeys
	watchEvery time.Duration
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithPush enables the subscription endpoints.
func WithPush(p *notify.Push) Option {
	return func(s *Server) { s.push = p }
}

// WithHub exposes the broadcast hub at /api/v1/ws.
func WithHub(h *notify.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithReminderLoop lets the server start and stop the reminder loop.
func WithReminderLoop(l *reminder.Loop) Option {
	return func(s *Server) { s.loop = l }
}

// WithWatchInterval sets the polling period of board event streams.
func WithWatchInterval(d time.Duration) Option {
	return func(s *Server) { s.watchEvery = d }
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, svc *scheduling.Service, rem *reminder.Processor, disp *notify.Dispatcher, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.With("component", "server"),
		config:     cfg,
		startTime:  time.Now(),
		service:    svc,
		reminders:  rem,
		dispatcher: disp,
		admin:      NewAdminKeys(cfg.AdminTokens),
		watchEvery: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// StartReminders runs the reminder loop in a background goroutine.
func (s *Server) StartReminders(ctx context.Context) {
	if s.loop == nil {
		return
	}
	go func() {
		if err := s.loop.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("reminder loop stopped", "error", err)
		}
	}()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		// Boards
		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.handleListBoards)
			r.Post("/", s.handleCreateBoard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBoard)
				r.Get("/events", s.handleWatchBoard)
				r.Post("/confirmations", s.handleRecordConfirmation)
				r.Get("/reminders", s.handleListReminders)
				r.Post("/reminders", s.handleScheduleReminder)

				// Administrative actions
				r.Group(func(r chi.Router) {
					r.Use(adminMiddleware(s.admin, s.logger))
					r.Patch("/", s.handleUpdateBoard)
					r.Delete("/", s.handleDeleteBoard)
					r.Post("/confirm", s.handleConfirmBoard)
					r.Post("/cancel", s.handleCancelBoard)
					r.Post("/reopen", s.handleReopenBoard)
				})
			})
		})

		r.Get("/examiners/{id}/boards", s.handleListExaminerBoards)

		// Notifications
		r.Get("/notifier", s.handleGetNotifier)
		r.Route("/subscriptions/{recipient}", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)
			r.Post("/", s.handleSubscribe)
			r.Delete("/", s.handleUnsubscribe)
		})
		if s.hub != nil {
			r.Handle("/ws", s.hub)
		}

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware(s.admin, s.logger))
			r.Put("/notifier", s.handleSetNotifier)
			r.Post("/reminders/run", s.handleRunReminders)
		})
	})
}
