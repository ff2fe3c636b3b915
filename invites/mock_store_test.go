package invites

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"meetgate/models"
)

// ── Mock Store ──

type mockStore struct {
	mutex    sync.Mutex
	nextID   uint64
	codes    map[uint64]*models.InviteCode
	now      time.Time
	findErr  error
	inserts  int
	markUsed int
}

func newMockStore() *mockStore {
	return &mockStore{
		codes: make(map[uint64]*models.InviteCode),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockStore) Insert(_ context.Context, code, notes string, expiresAt *time.Time) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.inserts++
	for _, ic := range m.codes {
		if ic.Code == code {
			return 0, models.ErrConflict
		}
	}
	m.nextID++
	m.now = m.now.Add(time.Second)
	m.codes[m.nextID] = &models.InviteCode{
		ID:        m.nextID,
		Code:      code,
		IsActive:  true,
		CreatedAt: m.now,
		ExpiresAt: expiresAt,
		Notes:     notes,
	}
	return m.nextID, nil
}

func (m *mockStore) FindUsable(_ context.Context, code string, unusedOnly bool) (models.InviteCode, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.findErr != nil {
		return models.InviteCode{}, m.findErr
	}
	for _, ic := range m.codes {
		if ic.Code == code && ic.UsableAt(m.now) && (!unusedOnly || ic.UsedAt == nil) {
			return *ic, nil
		}
	}
	return models.InviteCode{}, models.ErrNotFound
}

func (m *mockStore) MarkUsed(_ context.Context, id uint64) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ic, ok := m.codes[id]
	if !ok {
		return false
	}
	m.markUsed++
	now := m.now
	if ic.UsedAt == nil {
		ic.UsedAt = &now
	}
	ic.LastUsedAt = &now
	ic.UseCount++
	return true
}

func (m *mockStore) ClaimUnused(_ context.Context, id uint64) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ic, ok := m.codes[id]
	if !ok || ic.UsedAt != nil {
		return false
	}
	now := m.now
	ic.UsedAt = &now
	ic.UseCount++
	return true
}

func (m *mockStore) ListAll(_ context.Context) ([]models.InviteCode, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	result := []models.InviteCode{}
	for _, ic := range m.codes {
		result = append(result, *ic)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockStore) ToggleActive(_ context.Context, id uint64) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	ic, ok := m.codes[id]
	if ok {
		ic.IsActive = !ic.IsActive
	}
	return ok
}

func (m *mockStore) Delete(_ context.Context, id uint64) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.codes[id]
	delete(m.codes, id)
	return ok
}

func (m *mockStore) idOf(code string) uint64 {
	for id, ic := range m.codes {
		if ic.Code == code {
			return id
		}
	}
	return 0
}

// ── Mock Verifier ──

type mockVerifier struct {
	code string
	err  error
}

func (v *mockVerifier) MarkVerified(code string) error {
	if v.err != nil {
		return v.err
	}
	v.code = code
	return nil
}

var errBoom = errors.New("boom")
