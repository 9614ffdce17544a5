// Package devapi is an in-memory implementation of the scholarship REST API
// used for local development and end-to-end tests of the client.
package devapi

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/pkg/api"
)

// BasePath is where the API is mounted
const BasePath = "/api"

// Options: параметры сервера
type Options struct {
	// Now заменяет часы (истечение токенов, статистика)
	Now            func() time.Time
	Registry       *prometheus.Registry
	Secret         []byte
	AllowedOrigins []string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	BcryptCost     int

	// LoginRate ограничивает попытки входа с одного IP за LoginWindow; 0: без лимита
	LoginRate   int
	LoginWindow time.Duration

	// RotateRefresh выдает новый refresh token при каждом обновлении
	RotateRefresh bool
}

type serverMetrics struct {
	requests *prometheus.CounterVec
	logins   *prometheus.CounterVec
}

// Server обслуживает API
type Server struct {
	log      *zap.Logger
	store    *Store
	tokens   *Tokens
	metrics  serverMetrics
	registry *prometheus.Registry
	limiter  *rateLimiter
	now      func() time.Time
	opts     Options
}

// New создает сервер с пустым хранилищем
func New(log *zap.Logger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 5 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if len(opts.Secret) == 0 {
		opts.Secret = randomSecret()
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = time.Minute
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:*"}
	}

	s := &Server{
		log:      log,
		store:    NewStore(opts.BcryptCost),
		tokens:   NewTokens(opts.Secret, opts.AccessTTL, opts.RefreshTTL, opts.Now),
		registry: opts.Registry,
		now:      opts.Now,
		opts:     opts,
	}
	s.metrics = serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scholardesk_devapi",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scholardesk_devapi",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
	opts.Registry.MustRegister(s.metrics.requests, s.metrics.logins)
	if opts.LoginRate > 0 {
		s.limiter = newRateLimiter(opts.LoginRate, opts.LoginWindow, opts.Now)
	}
	return s
}

// Close останавливает фоновые горутины сервера
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// randomSecret нужен, когда секрет не задан: токены живут до рестарта
func randomSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}

// Store returns the backing store, for seeding
func (s *Server) Store() *Store {
	return s.store
}

// Handler собирает роутер: /api/... и /metrics
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний)
	root.Use(
		s.recovery,
		s.logging,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	root.Route(BasePath, s.routes)
	return root
}

// routes: единая точка регистрации всех REST эндпоинтов
func (s *Server) routes(r chi.Router) {
	r.Use(s.authenticate)

	r.Route("/auth", func(r chi.Router) {
		if s.limiter != nil {
			r.With(s.limit(s.limiter)).Post("/login/", s.handleLogin)
		} else {
			r.Post("/login/", s.handleLogin)
		}
		r.Post("/token/refresh/", s.handleRefresh)
		r.Post("/student/register/", s.handleRegisterStudent)
		r.With(s.requireUser).Post("/logout/", s.handleLogout)
		r.With(s.requireUser).Get("/profile/", s.handleProfile)
	})

	r.Route("/scholarships", func(r chi.Router) {
		r.Get("/", s.handleListScholarships)
		r.Get("/{id}/", s.handleGetScholarship)
		r.With(s.requireAdmin).Post("/", s.handleCreateScholarship)
		r.With(s.requireAdmin).Put("/{id}/", s.handleUpdateScholarship)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/scholarships/", s.handleListScholarships)
		r.Get("/scholarships/export/", s.handleExportScholarships)
		r.Get("/scholarships/statistics/", s.handleStatistics)
		r.Get("/scholarships/{id}/", s.handleGetScholarship)
		r.Put("/scholarships/{id}/", s.handleUpdateScholarship)
		r.Delete("/scholarships/{id}/delete/", s.handleDeleteScholarship)
		r.Get("/users/export/", s.handleExportUsers)
	})

	r.Route("/admins", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/", s.handleListAdmins)
		r.Post("/", s.handleCreateAdmin)
		r.With(s.requireSuper).Patch("/{id}/", s.handleUpdateAdmin)
		r.With(s.requireSuper).Delete("/{id}/", s.handleDeleteAdmin)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.sendDetail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})
}

// sendJSON отправляет JSON ответ
func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

// sendError отправляет {"error": ...}: так отвечают собственные view API
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, api.ErrorResponse{Error: message})
}

// sendDetail отправляет {"detail": ...}: так отвечают проверки доступа DRF
func (s *Server) sendDetail(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, api.ErrorResponse{Detail: message})
}
