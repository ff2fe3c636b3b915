package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"meetgate/auth"
	"meetgate/meeting"
	"meetgate/storage"

	"go.uber.org/zap"
)

// logRetention deletes access log files (current and rotated) not modified
// within the retention window
type logRetention struct {
	logFile   string
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func (t *logRetention) getName() string { return "log-retention" }

func (t *logRetention) run(_ context.Context) (int, error) {
	files, err := filepath.Glob(filepath.Join(filepath.Dir(t.logFile), "*.log*"))
	if err != nil {
		return 0, err
	}
	cutoff := t.now().Add(-t.retention)
	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err = os.Remove(file); err != nil {
			t.log.Warn("expired log not removed", zap.String("file", file), zap.Error(err))
			continue
		}
		t.log.Info("expired log removed", zap.String("file", filepath.Base(file)))
		removed++
	}
	return removed, nil
}

// logArchive ships rotated access logs to the archive target and removes the
// local copy once the upload succeeded
type logArchive struct {
	logFile string
	target  storage.StorageAPI
	log     *zap.Logger
}

func (t *logArchive) getName() string { return "log-archive" }

func (t *logArchive) run(ctx context.Context) (int, error) {
	files, err := filepath.Glob(t.logFile + ".*" + meeting.RotatedSuffix)
	if err != nil {
		return 0, err
	}
	archived := 0
	for _, file := range files {
		if err = t.archive(ctx, file); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

func (t *logArchive) archive(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	n, err := t.target.Save(ctx, filepath.Base(file), f)
	f.Close()
	if err != nil {
		return err
	}
	t.log.Info("access log archived",
		zap.String("file", filepath.Base(file)),
		zap.Int64("size", n),
		zap.Stringer("target", t.target))
	return os.Remove(file)
}

type sessionLocks struct {
	guard *auth.Guard
}

func (t *sessionLocks) getName() string { return "session-locks" }

func (t *sessionLocks) run(_ context.Context) (int, error) {
	return t.guard.PruneLocks(), nil
}
