package devapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// rateLimiter: fixed window лимитер по ключу (IP клиента)
type rateLimiter struct {
	buckets map[string]*bucket
	now     func() time.Time
	done    chan struct{}
	rate    int
	window  time.Duration
	mu      sync.Mutex
	stop    sync.Once
}

type bucket struct {
	windowStart time.Time
	tokens      int
}

// newRateLimiter создает лимитер: rate запросов за window.
// Неактивные buckets удаляются фоновой горутиной до вызова Stop
func newRateLimiter(rate int, window time.Duration, now func() time.Time) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		now:     now,
		done:    make(chan struct{}),
		rate:    rate,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict()
		case <-rl.done:
			return
		}
	}
}

// evict удаляет buckets, окно которых давно закончилось
func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает фоновую очистку; повторный вызов безопасен
func (rl *rateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.done) })
}

// Allow списывает токен для key и сообщает, разрешен ли запрос
func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now, tokens: rl.rate}
		rl.buckets[key] = b
	}
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// limit отвечает 429, когда клиент исчерпал лимит
func (s *Server) limit(rl *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !rl.Allow(key) {
				s.log.Warn("Rate limit exceeded",
					zap.String("ip", key),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				s.sendDetail(w, http.StatusTooManyRequests, "Request was throttled.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP берет первый адрес из X-Forwarded-For, затем X-Real-IP, затем RemoteAddr
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
