package auth

import (
	"errors"
	"fmt"
	"net/http"

	"meetgate/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-contrib/sessions/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNoTransport = errors.New("no session store available")

// NewStore walks the configured store kinds in order and returns the first one
// that can be set up, together with its kind.
func NewStore(cfg *config.Config, gdb *gorm.DB, log *zap.Logger) (sessions.Store, string, error) {
	secret := []byte(cfg.Session.Secret)
	for _, kind := range cfg.Session.Stores {
		store, err := newStore(kind, cfg, gdb, secret)
		if err != nil {
			log.Warn("session store unavailable, trying next", zap.String("store", kind), zap.Error(err))
			continue
		}
		store.Options(StoreOptions(&cfg.Session))
		log.Info("session store ready", zap.String("store", kind))
		return store, kind, nil
	}
	return nil, "", ErrNoTransport
}

func newStore(kind string, cfg *config.Config, gdb *gorm.DB, secret []byte) (sessions.Store, error) {
	switch kind {
	case config.SessionStoreDB:
		if gdb == nil {
			return nil, errors.New("database not connected")
		}
		return gormsessions.NewStore(gdb, true, secret), nil
	case config.SessionStoreRedis:
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis address not set")
		}
		return redis.NewStore(10, "tcp", cfg.Redis.Addr, cfg.Redis.Password, secret)
	case config.SessionStoreMemory:
		return memstore.NewStore(secret), nil
	case config.SessionStoreCookie:
		return cookie.NewStore(secret), nil
	}
	return nil, fmt.Errorf("unknown session store %q", kind)
}

// StoreOptions are the cookie settings shared by every store. MaxAge follows
// the idle window so the transport drops sessions no later than the guard.
func StoreOptions(cfg *config.SessionConfig) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.IdleTimeout.Seconds()),
		Secure:   cfg.SecureCookie,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
