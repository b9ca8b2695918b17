package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/eventhub/internal/http/response"
)

// RateLimiter хранит token bucket на каждого пользователя. Записи, не использованные
// дольше idleTTL, удаляются при очередном обращении.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const minIdleTTL = time.Minute

// NewRateLimiter создаёт RateLimiter с rps запросами в секунду и запасом burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	// за idleTTL корзина успевает наполниться, и удалённая запись равна новой
	idle := time.Hour
	if rps > 0 {
		idle = time.Duration(float64(burst) / rps * float64(time.Second))
	}
	if idle < minIdleTTL {
		idle = minIdleTTL
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idle,
		now:      time.Now,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.lim
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

// RateLimitMiddleware ограничивает частоту запросов пользователя из контекста,
// а без него адреса клиента.
func RateLimitMiddleware(l *RateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := r.Context().Value(UserID).(string)
			if !ok || key == "" {
				key = r.RemoteAddr
			}
			if !l.limiter(key).Allow() {
				log.Warn("too many requests",
					slog.String("key", key),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
