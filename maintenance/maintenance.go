package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetgate/auth"
	"meetgate/config"
	"meetgate/storage"

	"go.uber.org/zap"
)

type maintenanceTask interface {
	getName() string
	// run returns how many items it handled
	run(ctx context.Context) (int, error)
}

// Runner executes housekeeping tasks in registration order
type Runner struct {
	tasks []maintenanceTask
	log   *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{log: log}
}

func (r *Runner) registerTask(t maintenanceTask) {
	r.tasks = append(r.tasks, t)
}

// Setup registers every task the configuration enables. Rotated logs are
// archived before retention gets a chance to delete them.
func Setup(cfg *config.Config, guard *auth.Guard, archive storage.StorageAPI, log *zap.Logger) *Runner {
	r := NewRunner(log)
	if guard != nil {
		r.registerTask(&sessionLocks{guard: guard})
	}
	if cfg.AccessLog.Enabled {
		if archive != nil {
			r.registerTask(&logArchive{logFile: cfg.AccessLog.FilePath, target: archive, log: log})
		}
		r.registerTask(&logRetention{
			logFile:   cfg.AccessLog.FilePath,
			retention: time.Duration(cfg.AccessLog.RetentionDays) * 24 * time.Hour,
			now:       time.Now,
			log:       log,
		})
	}
	return r
}

func (r *Runner) TaskNames() []string {
	names := make([]string, 0, len(r.tasks))
	for _, t := range r.tasks {
		names = append(names, t.getName())
	}
	return names
}

// RunAll runs every task once. A failing task does not stop the others.
func (r *Runner) RunAll(ctx context.Context) error {
	var errs []error
	for _, t := range r.tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		count, err := t.run(ctx)
		if err != nil {
			r.log.Error("maintenance task failed", zap.String("task", t.getName()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.getName(), err))
			continue
		}
		r.log.Info("maintenance task done",
			zap.String("task", t.getName()),
			zap.Int("items", count),
			zap.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}

// Start runs all tasks every interval until ctx is cancelled
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RunAll(ctx)
		}
	}
}
