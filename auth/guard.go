package auth

import (
	"sync"
	"sync/atomic"
	"time"

	"meetgate/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

// sessionLock is shared by every in-flight request of one session. refs is
// only incremented under the registry shard lock, so an entry with zero refs
// has no waiter and can be dropped.
type sessionLock struct {
	sync.Mutex
	refs     atomic.Int32
	lastUsed atomic.Int64
}

// Guard decides whether a client session may reach protected pages. It keeps
// one mutex per live session so concurrent requests of the same client do not
// interleave their session updates.
type Guard struct {
	idleTimeout time.Duration
	now         func() time.Time
	locks       cmap.ConcurrentMap[string, *sessionLock]
	onDestroy   []func(id string)
	log         *zap.Logger
}

func NewGuard(cfg *config.SessionConfig, log *zap.Logger) *Guard {
	return &Guard{
		idleTimeout: cfg.IdleTimeout,
		now:         time.Now,
		locks:       cmap.New[*sessionLock](),
		log:         log,
	}
}

func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) Now() time.Time {
	return g.now()
}

// OnDestroy registers fn to be called with the id of every destroyed
// server-side session. Register before serving requests.
func (g *Guard) OnDestroy(fn func(id string)) {
	g.onDestroy = append(g.onDestroy, fn)
}

func (g *Guard) destroyed(id string) {
	if id == "" {
		return
	}
	for _, fn := range g.onDestroy {
		fn(id)
	}
}

// Load wraps the request session. The returned Session has no transport when
// the sessions middleware is not installed.
func (g *Guard) Load(c *gin.Context) *Session {
	s := &Session{guard: g, address: c.ClientIP()}
	if v, ok := c.Get(sessions.DefaultKey); ok {
		s.Session, _ = v.(sessions.Session)
	}
	return s
}

// lock serializes work on one session. Sessions without a server-side id
// (new ones, or cookie-held state) have nothing to race on.
func (g *Guard) lock(key string) func() {
	if key == "" {
		return func() {}
	}
	l := g.locks.Upsert(key, nil, func(exist bool, valueInMap, _ *sessionLock) *sessionLock {
		if !exist {
			valueInMap = &sessionLock{}
		}
		valueInMap.refs.Add(1)
		return valueInMap
	})
	l.Lock()
	l.lastUsed.Store(g.now().Unix())
	return func() {
		l.Unlock()
		l.refs.Add(-1)
	}
}

// forget drops the lock of a destroyed session unless a request still holds
// or waits on it. PruneLocks reclaims it later in that case.
func (g *Guard) forget(key string) {
	if key == "" {
		return
	}
	g.locks.RemoveCb(key, func(_ string, l *sessionLock, exists bool) bool {
		return exists && l.refs.Load() == 0
	})
}

// PruneLocks drops locks not used for longer than the idle window and returns
// how many were removed
func (g *Guard) PruneLocks() int {
	cutoff := g.now().Add(-g.idleTimeout).Unix()
	removed := 0
	for _, key := range g.locks.Keys() {
		if g.locks.RemoveCb(key, func(_ string, l *sessionLock, exists bool) bool {
			return exists && l.refs.Load() == 0 && l.lastUsed.Load() < cutoff
		}) {
			removed++
		}
	}
	if removed > 0 {
		g.log.Debug("session locks pruned", zap.Int("count", removed))
	}
	return removed
}

func (g *Guard) LockCount() int {
	return g.locks.Count()
}
