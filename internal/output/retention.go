package output

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	// DefaultRetentionDays is how long exported files are kept
	DefaultRetentionDays = 30
	// DefaultRetentionSchedule runs the sweep daily at 2 AM
	DefaultRetentionSchedule = "0 2 * * *"
)

// RetentionSweeper periodically deletes old exports from an output directory
type RetentionSweeper struct {
	dir      string
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	mu       sync.Mutex
	started  bool
}

// NewRetentionSweeper creates a sweeper for dir. Non-positive days and an
// empty schedule select the defaults.
func NewRetentionSweeper(dir string, days int, schedule string) *RetentionSweeper {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	return &RetentionSweeper{
		dir:      dir,
		maxAge:   time.Duration(days) * 24 * time.Hour,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start schedules the sweep and runs one immediately in the background
func (s *RetentionSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		logger.Error("Failed to schedule export retention sweep",
			zap.String("schedule", s.schedule),
			zap.Error(err),
		)
		return err
	}
	s.cron.Start()
	s.started = true

	logger.Info("Export retention sweeper started",
		zap.String("dir", s.dir),
		zap.String("schedule", s.schedule),
		zap.Duration("max_age", s.maxAge),
	)

	go s.run()
	return nil
}

// Stop stops the scheduler and waits for a running sweep
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	logger.Info("Export retention sweeper stopped")
}

func (s *RetentionSweeper) run() {
	start := time.Now()
	deleted, err := s.Sweep()
	if err != nil {
		logger.Error("Export retention sweep failed", zap.String("dir", s.dir), zap.Error(err))
		return
	}
	logger.Info("Export retention sweep completed",
		zap.Int("deleted_count", deleted),
		zap.Duration("duration", time.Since(start)),
	)
}

// Sweep deletes regular files in the directory last modified before the
// retention window. Subdirectories are left alone. A missing directory is
// not an error.
func (s *RetentionSweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	deleted := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to delete expired export", zap.String("path", path), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}
