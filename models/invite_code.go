package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrConflict = errors.New("invite code already exists")
	ErrNotFound = errors.New("invite code not found")
)

// InviteCode is a single invitation. UsedAt is the first successful use,
// LastUsedAt/UseCount track every use after that.
type InviteCode struct {
	ID         uint64     `gorm:"primaryKey" json:"id"`
	Code       string     `gorm:"column:invite_code;type:varchar(32);uniqueIndex:uniq_invite_code;not null" json:"invite_code"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `gorm:"index:invite_created_at" json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	UseCount   uint32     `gorm:"not null;default:0" json:"use_count"`
	Notes      string     `gorm:"type:text" json:"notes"`
}

func (InviteCode) TableName() string { return "invite_codes" }

// UsableAt reports whether the code is active and not expired at t
func (ic *InviteCode) UsableAt(t time.Time) bool {
	return ic.IsActive && (ic.ExpiresAt == nil || ic.ExpiresAt.After(t))
}

// CodeStore persists InviteCode records. Uniqueness of the code is enforced by
// the database index, not by the store.
type CodeStore struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewCodeStore(db *gorm.DB, log *zap.Logger) *CodeStore {
	return &CodeStore{db: db, log: log, now: time.Now}
}

// WithClock replaces the time source, mostly for tests
func (s *CodeStore) WithClock(now func() time.Time) *CodeStore {
	s.now = now
	return s
}

func (s *CodeStore) Now() time.Time {
	return s.now().UTC()
}

// Insert creates an active code and returns its ID. ErrConflict means the code
// is taken.
func (s *CodeStore) Insert(ctx context.Context, code, notes string, expiresAt *time.Time) (uint64, error) {
	ic := InviteCode{
		Code:      code,
		IsActive:  true,
		CreatedAt: s.Now(),
		Notes:     notes,
	}
	if expiresAt != nil {
		t := expiresAt.UTC()
		ic.ExpiresAt = &t
	}
	if err := s.db.WithContext(ctx).Create(&ic).Error; err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		s.log.Error("invite code insert failed", zap.Error(err))
		return 0, err
	}
	return ic.ID, nil
}

// FindUsable returns the code if it is active and unexpired. When unusedOnly is
// set, codes that were already consumed are treated as missing too.
func (s *CodeStore) FindUsable(ctx context.Context, code string, unusedOnly bool) (ic InviteCode, err error) {
	tx := s.db.WithContext(ctx).
		Where("invite_code = ? AND is_active = ?", code, true).
		Where("(expires_at IS NULL OR expires_at > ?)", s.Now())
	if unusedOnly {
		tx = tx.Where("used_at IS NULL")
	}
	err = tx.First(&ic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ic, ErrNotFound
	}
	if err != nil {
		s.log.Error("invite code lookup failed", zap.Error(err))
	}
	return ic, err
}

// MarkUsed records a use: used_at is set on the first use only, last_used_at
// and use_count move on every call
func (s *CodeStore) MarkUsed(ctx context.Context, id uint64) bool {
	now := s.Now()
	result := s.db.WithContext(ctx).
		Model(&InviteCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"used_at":      gorm.Expr("COALESCE(used_at, ?)", now),
			"last_used_at": now,
			"use_count":    gorm.Expr("use_count + 1"),
		})
	if result.Error != nil {
		s.log.Error("invite code mark used failed", zap.Uint64("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected == 1
}

// ClaimUnused is MarkUsed restricted to never-used codes. Exactly one of two
// concurrent claims on the same code succeeds.
func (s *CodeStore) ClaimUnused(ctx context.Context, id uint64) bool {
	now := s.Now()
	result := s.db.WithContext(ctx).
		Model(&InviteCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Updates(map[string]interface{}{
			"used_at":      now,
			"last_used_at": now,
			"use_count":    gorm.Expr("use_count + 1"),
		})
	if result.Error != nil {
		s.log.Error("invite code claim failed", zap.Uint64("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected == 1
}

// ListAll returns every code, newest first
func (s *CodeStore) ListAll(ctx context.Context) ([]InviteCode, error) {
	codes := []InviteCode{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&codes).Error
	if err != nil {
		s.log.Error("invite code list failed", zap.Error(err))
		return []InviteCode{}, err
	}
	return codes, nil
}

// Get loads a single code by ID
func (s *CodeStore) Get(ctx context.Context, id uint64) (ic InviteCode, err error) {
	err = s.db.WithContext(ctx).First(&ic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ic, ErrNotFound
	}
	return ic, err
}

// ToggleActive flips is_active in a single statement
func (s *CodeStore) ToggleActive(ctx context.Context, id uint64) bool {
	result := s.db.WithContext(ctx).
		Model(&InviteCode{}).
		Where("id = ?", id).
		Update("is_active", gorm.Expr("NOT is_active"))
	if result.Error != nil {
		s.log.Error("invite code toggle failed", zap.Uint64("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected == 1
}

func (s *CodeStore) Delete(ctx context.Context, id uint64) bool {
	result := s.db.WithContext(ctx).Delete(&InviteCode{}, id)
	if result.Error != nil {
		s.log.Error("invite code delete failed", zap.Uint64("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected == 1
}

// isDuplicate covers drivers that do not translate unique violations
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
