package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 60 * time.Second

// Refresher refreshes every session that asked for automatic updates.
type Refresher interface {
	RefreshAutoSessions(ctx context.Context) (int, error)
}

// Scheduler runs the auto-refresh pass on a cron schedule. A pass that is
// still running when the next one is due causes that next one to be skipped.
type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	spec      string
	cron      *cron.Cron
	entryID   cron.EntryID

	mu            sync.Mutex
	running       bool
	lastRun       time.Time
	lastRefreshed int
	lastError     string
	runs          int
}

func NewScheduler(refresher Refresher, spec string, logger *zap.Logger) (*Scheduler, error) {
	cronLogger := cronLog{logger.Sugar()}
	s := &Scheduler{
		refresher: refresher,
		logger:    logger,
		spec:      spec,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
	}

	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = s.RunNow(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid auto refresh schedule %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.String("spec", s.spec),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next))
}

// Stop halts the schedule and waits for a pass in flight to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunNow performs one refresh pass immediately.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	startTime := time.Now()
	s.logger.Info("Starting auto refresh", zap.Time("start_time", startTime))

	refreshed, err := s.refresher.RefreshAutoSessions(ctx)

	s.mu.Lock()
	s.runs++
	s.lastRun = startTime
	s.lastRefreshed = refreshed
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Auto refresh finished with errors",
			zap.Int("refreshed", refreshed),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
	} else {
		s.logger.Info("Auto refresh completed",
			zap.Int("refreshed", refreshed),
			zap.Duration("duration", time.Since(startTime)))
	}
	return refreshed, err
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":        s.running,
		"spec":           s.spec,
		"runs":           s.runs,
		"last_refreshed": s.lastRefreshed,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}
	return status
}

// cronLog routes cron's own messages into zap.
type cronLog struct {
	l *zap.SugaredLogger
}

func (c cronLog) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
