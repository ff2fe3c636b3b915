package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetgate/config"
	"meetgate/models"
	"meetgate/utils"

	"go.uber.org/zap"
)

const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrGenerationExhausted = errors.New("could not generate a unique invite code")

// Store is the persistence the manager needs, implemented by models.CodeStore
type Store interface {
	Insert(ctx context.Context, code, notes string, expiresAt *time.Time) (uint64, error)
	FindUsable(ctx context.Context, code string, unusedOnly bool) (models.InviteCode, error)
	MarkUsed(ctx context.Context, id uint64) bool
	ClaimUnused(ctx context.Context, id uint64) bool
	ListAll(ctx context.Context) ([]models.InviteCode, error)
	ToggleActive(ctx context.Context, id uint64) bool
	Delete(ctx context.Context, id uint64) bool
}

// Manager owns the invite code lifecycle: generation, validation and consumption
type Manager struct {
	store       Store
	log         *zap.Logger
	codeLength  int
	maxAttempts int
	singleUse   bool
	random      func(alphabet string, length int) (string, error)
}

func NewManager(store Store, cfg *config.InviteConfig, log *zap.Logger) *Manager {
	return &Manager{
		store:       store,
		log:         log,
		codeLength:  cfg.CodeLength,
		maxAttempts: cfg.MaxAttempts,
		singleUse:   cfg.SingleUse,
		random:      utils.RandString,
	}
}

// Generate creates a new active code, retrying on collisions
func (m *Manager) Generate(ctx context.Context, notes string, expiresAt *time.Time) (string, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		code, err := m.random(CodeAlphabet, m.codeLength)
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		_, err = m.store.Insert(ctx, code, notes, expiresAt)
		if err == nil {
			m.log.Info("invite code generated", zap.String("code", code), zap.Int("attempt", attempt))
			return code, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return "", err
		}
		m.log.Debug("invite code collision", zap.String("code", code))
	}
	m.log.Warn("invite code generation exhausted", zap.Int("attempts", m.maxAttempts))
	return "", ErrGenerationExhausted
}

// Consume checks the submitted code and records its use. A false result with
// a nil error means the code is unknown, disabled, expired or (in single-use
// mode) already taken. A non-nil error is a storage failure.
func (m *Manager) Consume(ctx context.Context, raw string) (bool, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return false, nil
	}
	ic, err := m.store.FindUsable(ctx, code, m.singleUse)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.singleUse {
		return m.store.ClaimUnused(ctx, ic.ID), nil
	}
	if !m.store.MarkUsed(ctx, ic.ID) {
		// Validity was already established, a failed bookkeeping write does not revoke it
		m.log.Warn("invite code use not recorded", zap.Uint64("id", ic.ID))
	}
	return true, nil
}

// ValidateAndConsume collapses every failure into false
func (m *Manager) ValidateAndConsume(ctx context.Context, raw string) bool {
	ok, err := m.Consume(ctx, raw)
	if err != nil {
		m.log.Error("invite code validation failed", zap.Error(err))
		return false
	}
	return ok
}

func (m *Manager) Toggle(ctx context.Context, id uint64) bool {
	return m.store.ToggleActive(ctx, id)
}

func (m *Manager) Delete(ctx context.Context, id uint64) bool {
	return m.store.Delete(ctx, id)
}

func (m *Manager) ListAll(ctx context.Context) ([]models.InviteCode, error) {
	return m.store.ListAll(ctx)
}
