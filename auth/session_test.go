package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"meetgate/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testClock struct {
	mutex sync.Mutex
	t     time.Time
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.t = c.t.Add(d)
	c.mutex.Unlock()
}

// client keeps cookies between requests the way a browser would
type client struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
	addr    string
}

func (cl *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.RemoteAddr = cl.addr + ":40000"
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.engine.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
		} else {
			cl.cookies[c.Name] = c
		}
	}
	return rec
}

func newTestGuard() (*Guard, *testClock, config.SessionConfig) {
	cfg := config.SessionConfig{
		Secret:      testSecret,
		CookieName:  "JITSI_SESSION",
		IdleTimeout: 2 * time.Hour,
	}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewGuard(&cfg, zap.NewNop()).WithClock(clock.Now), clock, cfg
}

func newTestEngine(guard *Guard, cfg config.SessionConfig) *gin.Engine {
	return newTestEngineWithStore(guard, cfg, cookie.NewStore([]byte(cfg.Secret)))
}

func newTestEngineWithStore(guard *Guard, cfg config.SessionConfig, store sessions.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store.Options(StoreOptions(&cfg))
	r.Use(sessions.Sessions(cfg.CookieName, store))

	r.POST("/verify", func(c *gin.Context) {
		if err := guard.Load(c).MarkVerified(c.PostForm("invite_code")); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/touch", func(c *gin.Context) {
		guard.Load(c).Set("language", "en-US")
		c.Status(http.StatusOK)
	})
	r.GET("/logout", func(c *gin.Context) {
		guard.Load(c).Destroy()
		c.Redirect(http.StatusFound, "/")
	})
	r.POST("/admin/login", func(c *gin.Context) {
		guard.Load(c).SetAdmin(true)
		c.Status(http.StatusOK)
	})

	router := &Router{Base: r, Guard: guard}
	router.GET("/meeting", func(c *gin.Context, s *Session) {
		c.String(http.StatusOK, s.InviteCode())
	})
	router.AdminGET("/admin/panel", func(c *gin.Context, s *Session) {
		c.String(http.StatusOK, "panel")
	})
	router.AdminPOST("/admin/api", func(c *gin.Context, s *Session) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func newClient(t *testing.T, engine *gin.Engine) *client {
	return &client{t: t, engine: engine, cookies: map[string]*http.Cookie{}, addr: "10.0.0.1"}
}

func verify(cl *client, code string) {
	cl.t.Helper()
	if rec := cl.do(http.MethodPost, "/verify", url.Values{"invite_code": {code}}); rec.Code != http.StatusOK {
		cl.t.Fatalf("verify status = %d", rec.Code)
	}
}

func TestGuardedPageRequiresVerification(t *testing.T) {
	guard, _, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))

	rec := cl.do(http.MethodGet, "/meeting", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("unverified GET /meeting = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	// A session that exists but was never verified is still turned away
	cl.do(http.MethodGet, "/touch", nil)
	if rec = cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("unverified session GET /meeting = %d", rec.Code)
	}

	verify(cl, "ABCD1234")
	rec = cl.do(http.MethodGet, "/meeting", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ABCD1234" {
		t.Fatalf("verified GET /meeting = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIdleWindowSlides(t *testing.T) {
	guard, clock, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))
	verify(cl, "ABCD1234")

	// Each visit inside the window pushes the deadline forward
	for i := 0; i < 3; i++ {
		clock.Advance(90 * time.Minute)
		if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusOK {
			t.Fatalf("visit %d status = %d", i, rec.Code)
		}
	}

	clock.Advance(2*time.Hour + time.Second)
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("idle session status = %d, want redirect", rec.Code)
	}
	// The session was destroyed, coming back in time does not revive it
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("destroyed session status = %d, want redirect", rec.Code)
	}
}

func TestIdleWindowBoundary(t *testing.T) {
	guard, clock, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))
	verify(cl, "ABCD1234")

	clock.Advance(2 * time.Hour)
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusOK {
		t.Fatalf("exactly idle window status = %d, want 200", rec.Code)
	}
}

func TestAddressBinding(t *testing.T) {
	guard, _, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))
	verify(cl, "ABCD1234")

	cl.addr = "10.0.0.2"
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("moved client status = %d, want redirect", rec.Code)
	}
	cl.addr = "10.0.0.1"
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("session should be gone after the address check, status = %d", rec.Code)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	guard, _, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))
	verify(cl, "ABCD1234")

	for i := 0; i < 2; i++ {
		if rec := cl.do(http.MethodGet, "/logout", nil); rec.Code != http.StatusFound {
			t.Fatalf("logout %d status = %d", i, rec.Code)
		}
	}
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusFound {
		t.Fatalf("logged out GET /meeting = %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	guard, _, cfg := newTestGuard()
	cl := newClient(t, newTestEngine(guard, cfg))

	if rec := cl.do(http.MethodGet, "/admin/panel", nil); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("anonymous panel = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := cl.do(http.MethodPost, "/admin/api", url.Values{}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous api = %d", rec.Code)
	}
	// A verified participant is not an admin
	verify(cl, "ABCD1234")
	if rec := cl.do(http.MethodPost, "/admin/api", url.Values{}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("participant api = %d", rec.Code)
	}

	cl.do(http.MethodPost, "/admin/login", url.Values{})
	if rec := cl.do(http.MethodGet, "/admin/panel", nil); rec.Code != http.StatusOK {
		t.Fatalf("admin panel = %d", rec.Code)
	}
	if rec := cl.do(http.MethodPost, "/admin/api", url.Values{}); rec.Code != http.StatusOK {
		t.Fatalf("admin api = %d", rec.Code)
	}
}

func TestNoTransport(t *testing.T) {
	guard, _, _ := newTestGuard()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	s := guard.Load(c)
	if s.Initialize() || s.IsValid() || s.IsVerified() {
		t.Error("session without transport must not be valid")
	}
	if err := s.MarkVerified("ABCD1234"); err != ErrNoTransport {
		t.Errorf("MarkVerified() error = %v, want ErrNoTransport", err)
	}
	s.Destroy()
}

func TestPruneLocks(t *testing.T) {
	guard, clock, _ := newTestGuard()
	guard.lock("old")()
	clock.Advance(time.Hour)
	guard.lock("recent")()

	clock.Advance(90 * time.Minute)
	if n := guard.PruneLocks(); n != 1 {
		t.Fatalf("PruneLocks() = %d, want 1", n)
	}
	if guard.LockCount() != 1 || !guard.locks.Has("recent") {
		t.Errorf("remaining locks = %v", guard.locks.Keys())
	}
	// No-cookie requests never register a lock
	guard.lock("")()
	if guard.LockCount() != 1 {
		t.Errorf("LockCount() = %d", guard.LockCount())
	}
}

func TestSessionLockRegistered(t *testing.T) {
	guard, _, cfg := newTestGuard()
	cl := newClient(t, newTestEngineWithStore(guard, cfg, memstore.NewStore([]byte(cfg.Secret))))
	verify(cl, "ABCD1234")
	if rec := cl.do(http.MethodGet, "/meeting", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET /meeting = %d", rec.Code)
	}
	if guard.LockCount() != 1 {
		t.Errorf("LockCount() = %d, want 1", guard.LockCount())
	}
	cl.do(http.MethodGet, "/logout", nil)
	if guard.LockCount() != 0 {
		t.Errorf("LockCount() after logout = %d, want 0", guard.LockCount())
	}
}

func TestHeldLockIsNotReplaced(t *testing.T) {
	guard, clock, _ := newTestGuard()
	release := guard.lock("busy")
	held, _ := guard.locks.Get("busy")

	guard.forget("busy")
	clock.Advance(3 * time.Hour)
	if n := guard.PruneLocks(); n != 0 {
		t.Fatalf("PruneLocks() removed %d locks still in use", n)
	}

	// a waiter on the same session must queue on the same mutex
	acquired := make(chan struct{})
	go func() {
		guard.lock("busy")()
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatal("second request got the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}
	if current, _ := guard.locks.Get("busy"); current != held {
		t.Error("registry entry was replaced while held")
	}

	release()
	<-acquired
	clock.Advance(3 * time.Hour)
	if n := guard.PruneLocks(); n != 1 {
		t.Errorf("PruneLocks() after release = %d, want 1", n)
	}
}

func TestDestroyNotifiesListeners(t *testing.T) {
	guard, _, cfg := newTestGuard()
	var mutex sync.Mutex
	destroyed := []string{}
	guard.OnDestroy(func(id string) {
		mutex.Lock()
		destroyed = append(destroyed, id)
		mutex.Unlock()
	})
	cl := newClient(t, newTestEngineWithStore(guard, cfg, memstore.NewStore([]byte(cfg.Secret))))
	verify(cl, "ABCD1234")
	cl.do(http.MethodGet, "/logout", nil)

	mutex.Lock()
	defer mutex.Unlock()
	if len(destroyed) != 1 || destroyed[0] == "" {
		t.Errorf("destroy listeners got %q, want one session id", destroyed)
	}
}
