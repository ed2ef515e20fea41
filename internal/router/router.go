package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crosspost-backend/internal/handlers"
	"crosspost-backend/internal/middleware"
	"crosspost-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	scheduleHandler *handlers.ScheduleHandler,
	queueHandler *handlers.QueueHandler,
	calendarHandler *handlers.CalendarHandler,
	autopilotHandler *handlers.AutopilotHandler,
	videoHandler *handlers.VideoHandler,
	platformHandler *handlers.PlatformHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Targeting ────
		r.Route("/posts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/schedule", scheduleHandler.Schedule)
		})

		// ──── Queue & Calendar ────
		r.Route("/queue", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", queueHandler.GetQueue)
			r.Put("/{id}", queueHandler.Reschedule)
			r.Post("/{id}/publish", queueHandler.ForcePublish)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/calendar", calendarHandler.GetCalendar)
		})

		// ──── Auto-pilot & dispatch ────
		r.Route("/autopilot", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/run", autopilotHandler.Run)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/dispatch", autopilotHandler.Dispatch)
		})

		// ──── Video library ────
		r.Route("/videos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/ingest", videoHandler.Ingest)
			r.Get("/", videoHandler.List)
		})

		// ──── Platforms ────
		r.Route("/platforms", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", platformHandler.List)
			r.Put("/{platform}/credentials", platformHandler.UpdateCredentials)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetByID)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
