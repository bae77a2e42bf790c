package httpserver

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	cartCookieName = "perle_cart"
	cartKeyHeader  = "X-Cart-Key"
	visitorCtxKey  = "visitorID"
)

var visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// visitorMiddleware resolves the cart owner from the X-Cart-Key header or the cart cookie,
// issuing a new id (and cookie) on first contact.
func visitorMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cartKeyHeader)
		if id == "" {
			if v, err := c.Cookie(cartCookieName); err == nil {
				id = v
			}
		}
		if id != "" && !visitorIDPattern.MatchString(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid cart key"})
			return
		}
		if id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cartCookieName, id, int((365 * 24 * time.Hour).Seconds()), "/", "", secure, true)
		}
		c.Header(cartKeyHeader, id)
		c.Set(visitorCtxKey, id)
		c.Next()
	}
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorCtxKey)
}

// checkoutLimiter throttles checkout creation per client IP. Entries idle for longer
// than idle are swept; an active client keeps its limiter and its spent burst.
type checkoutLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*limitedVisitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limitedVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newCheckoutLimiter(perMinute int) *checkoutLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &checkoutLimiter{
		visitors: make(map[string]*limitedVisitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *checkoutLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &limitedVisitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *checkoutLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

func (l *checkoutLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "For mange forsøk. Prøv igjen om litt."})
			return
		}
		c.Next()
	}
}
