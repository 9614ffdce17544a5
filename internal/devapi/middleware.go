package devapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iudanet/scholardesk/pkg/api"
)

type contextKey string

const userKey contextKey = "user"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the number of bytes written
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// logging логирует метод, маршрут, статус и длительность и считает запросы.
// Заголовки и тела не логируются: в них токены и пароли
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()

		// Уровень зависит от статуса ответа
		level := zapcore.InfoLevel
		switch {
		case wrapped.statusCode >= 500:
			level = zapcore.ErrorLevel
		case wrapped.statusCode >= 400:
			level = zapcore.WarnLevel
		}
		s.log.Log(level, "HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes_written", wrapped.written),
		)
	})
}

// recovery перехватывает panic, логирует стек и отвечает 500
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				// Не раскрываем детали клиенту
				s.sendError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate кладет пользователя в контекст, если передан Bearer токен.
// Невалидный токен отвергается сразу, отсутствие токена решают обработчики
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Ожидаем формат: "Bearer <token>"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			s.sendDetail(w, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
			return
		}

		claims, err := s.tokens.Validate(parts[1])
		if err != nil {
			s.log.Debug("invalid access token", zap.Error(err))
			s.sendDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			s.sendDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		user, err := s.store.User(id)
		if err != nil {
			s.sendDetail(w, http.StatusUnauthorized, "User not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func userFrom(ctx context.Context) (api.User, bool) {
	u, ok := ctx.Value(userKey).(api.User)
	return u, ok
}

// requireUser пропускает только аутентифицированные запросы
func (s *Server) requireUser(next http.Handler) http.Handler {
	return s.requireRole(func(api.User) bool { return true })(next)
}

// requireAdmin пропускает staff и super admins
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireRole(api.User.IsAdmin)(next)
}

// requireSuper пропускает только super admins
func (s *Server) requireSuper(next http.Handler) http.Handler {
	return s.requireRole(func(u api.User) bool { return u.IsAdmin() && u.IsSuper() })(next)
}

func (s *Server) requireRole(allowed func(api.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r.Context())
			if !ok {
				s.sendDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			if !allowed(user) {
				s.sendDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
