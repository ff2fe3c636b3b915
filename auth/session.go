package auth

import (
	"github.com/gin-contrib/sessions"
	"go.uber.org/zap"
)

const (
	keyVerified     = "verified"
	keyInviteCode   = "invite_code"
	keyVerifyTime   = "verify_time"
	keyLastActivity = "last_activity"
	keyBoundAddress = "ip_address"
	keyCurrentRoom  = "current_room"
	keyRoomJoinTime = "room_join_time"
	keyAdmin        = "admin_logged_in"
	keyLanguage     = "language"
)

// Session is the per-request view of a client session. Values are kept as
// gob-friendly basic types: times are unix seconds.
type Session struct {
	sessions.Session
	guard   *Guard
	address string
}

func (s *Session) lockKey() string {
	return s.Session.ID()
}

// Initialize reports whether a session transport is attached to the request
func (s *Session) Initialize() bool {
	return s.Session != nil
}

// Set stores a value. The first write to a session binds it to the client
// address and starts the idle clock.
func (s *Session) Set(key string, value interface{}) error {
	if s.Session == nil {
		return ErrNoTransport
	}
	defer s.guard.lock(s.lockKey())()
	s.set(key, value)
	return s.Save()
}

func (s *Session) set(key string, value interface{}) {
	s.Session.Set(key, value)
	if _, bound := s.Session.Get(keyBoundAddress).(string); !bound {
		s.Session.Set(keyBoundAddress, s.address)
		s.Session.Set(keyLastActivity, s.guard.Now().Unix())
	}
}

func (s *Session) GetString(key string) string {
	if s.Session == nil {
		return ""
	}
	v, _ := s.Session.Get(key).(string)
	return v
}

func (s *Session) GetInt64(key string) int64 {
	if s.Session == nil {
		return 0
	}
	v, _ := s.Session.Get(key).(int64)
	return v
}

func (s *Session) GetBool(key string) bool {
	if s.Session == nil {
		return false
	}
	v, _ := s.Session.Get(key).(bool)
	return v
}

// MarkVerified records a successful invite code submission
func (s *Session) MarkVerified(code string) error {
	if s.Session == nil {
		return ErrNoTransport
	}
	defer s.guard.lock(s.lockKey())()
	s.set(keyVerified, true)
	s.set(keyInviteCode, code)
	s.set(keyVerifyTime, s.guard.Now().Unix())
	return s.Save()
}

// IsValid checks the idle window and the address binding, destroying the
// session on violation. Every successful check slides the idle window.
func (s *Session) IsValid() bool {
	if s.Session == nil {
		return false
	}
	unlock := s.guard.lock(s.lockKey())
	now := s.guard.Now()
	if last, ok := s.Session.Get(keyLastActivity).(int64); ok && now.Unix()-last > int64(s.guard.idleTimeout.Seconds()) {
		unlock()
		s.Destroy()
		return false
	}
	if bound, ok := s.Session.Get(keyBoundAddress).(string); ok && bound != s.address {
		unlock()
		s.guard.log.Info("session address changed, destroying", zap.String("bound", bound), zap.String("address", s.address))
		s.Destroy()
		return false
	}
	s.Session.Set(keyLastActivity, now.Unix())
	err := s.Save()
	unlock()
	if err != nil {
		s.guard.log.Warn("session refresh not saved", zap.Error(err))
	}
	return true
}

// IsVerified is the check for the meeting page
func (s *Session) IsVerified() bool {
	return s.IsValid() && s.GetBool(keyVerified)
}

func (s *Session) InviteCode() string {
	return s.GetString(keyInviteCode)
}

func (s *Session) IsAdmin() bool {
	return s.IsValid() && s.GetBool(keyAdmin)
}

func (s *Session) SetAdmin(loggedIn bool) error {
	if !loggedIn {
		if s.Session == nil {
			return nil
		}
		defer s.guard.lock(s.lockKey())()
		s.Session.Delete(keyAdmin)
		return s.Save()
	}
	return s.Set(keyAdmin, true)
}

// JoinRoom remembers the room the client was last sent to
func (s *Session) JoinRoom(room string) error {
	if s.Session == nil {
		return ErrNoTransport
	}
	defer s.guard.lock(s.lockKey())()
	s.set(keyCurrentRoom, room)
	s.set(keyRoomJoinTime, s.guard.Now().Unix())
	return s.Save()
}

func (s *Session) CurrentRoom() string {
	return s.GetString(keyCurrentRoom)
}

func (s *Session) Language() string {
	return s.GetString(keyLanguage)
}

func (s *Session) SetLanguage(lang string) error {
	return s.Set(keyLanguage, lang)
}

// Destroy wipes the session and expires the client cookie. Calling it again is
// harmless.
func (s *Session) Destroy() {
	if s.Session == nil {
		return
	}
	key := s.lockKey()
	unlock := s.guard.lock(key)
	s.Session.Clear()
	s.Session.Options(sessions.Options{Path: "/", MaxAge: -1})
	err := s.Save()
	unlock()
	s.guard.forget(key)
	s.guard.destroyed(key)
	if err != nil {
		s.guard.log.Warn("session destroy not saved", zap.Error(err))
	}
}
