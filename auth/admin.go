package auth

import (
	"crypto/subtle"

	"meetgate/config"

	"golang.org/x/crypto/bcrypt"
)

// Credential checks the single shared admin password. A bcrypt hash wins over
// a plain password when both are configured.
type Credential struct {
	hash  []byte
	plain []byte
}

func NewCredential(cfg *config.AdminConfig) *Credential {
	c := &Credential{}
	if cfg.PasswordHash != "" {
		c.hash = []byte(cfg.PasswordHash)
	} else if cfg.Password != "" {
		c.plain = []byte(cfg.Password)
	}
	return c
}

func (c *Credential) Check(password string) bool {
	if password == "" {
		return false
	}
	if c.hash != nil {
		return bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	}
	if c.plain == nil {
		return false
	}
	return subtle.ConstantTimeCompare(c.plain, []byte(password)) == 1
}

// HashPassword is used by the -hash-password flag to produce ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
