package meeting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"meetgate/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entryTimeLayout  = "2006-01-02 15:04:05"
	rotateTimeLayout = "2006-01-02-15-04-05"
	RotatedSuffix    = ".bak"
)

type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// AccessLogger records that a participant entered a room
type AccessLogger interface {
	LogAccess(room, code string, meta ClientMeta) error
}

type AccessEntry struct {
	Timestamp  string `json:"timestamp"`
	ID         string `json:"id"`
	RoomName   string `json:"room_name"`
	InviteCode string `json:"invite_code"`
	UserAgent  string `json:"user_agent"`
	IPAddress  string `json:"ip_address"`
}

// FileAccessLogger appends one JSON line per access and rotates the file to
// <file>.<timestamp>.bak once it grows past MaxSize
type FileAccessLogger struct {
	cfg   config.AccessLogConfig
	mutex sync.Mutex
	now   func() time.Time
	log   *zap.Logger
}

func NewFileAccessLogger(cfg *config.AccessLogConfig, log *zap.Logger) *FileAccessLogger {
	return &FileAccessLogger{cfg: *cfg, now: time.Now, log: log}
}

func (l *FileAccessLogger) WithClock(now func() time.Time) *FileAccessLogger {
	l.now = now
	return l
}

func (l *FileAccessLogger) LogAccess(room, code string, meta ClientMeta) error {
	if !l.cfg.Enabled {
		return nil
	}
	now := l.now()
	line, err := json.Marshal(AccessEntry{
		Timestamp:  now.Format(entryTimeLayout),
		ID:         uuid.NewString(),
		RoomName:   room,
		InviteCode: code,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err = os.MkdirAll(filepath.Dir(l.cfg.FilePath), 0755); err != nil {
		return fmt.Errorf("access log dir: %w", err)
	}
	if err = l.rotate(now); err != nil {
		return err
	}
	f, err := os.OpenFile(l.cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("access log open: %w", err)
	}
	defer f.Close()
	_, err = f.Write(line)
	return err
}

func (l *FileAccessLogger) rotate(now time.Time) error {
	info, err := os.Stat(l.cfg.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() <= l.cfg.MaxSize {
		return nil
	}
	rotated := l.cfg.FilePath + "." + now.Format(rotateTimeLayout) + RotatedSuffix
	if err = os.Rename(l.cfg.FilePath, rotated); err != nil {
		return fmt.Errorf("access log rotate: %w", err)
	}
	l.log.Info("access log rotated", zap.String("file", rotated), zap.Int64("size", info.Size()))
	return nil
}

func (l *FileAccessLogger) Dir() string {
	return filepath.Dir(l.cfg.FilePath)
}
