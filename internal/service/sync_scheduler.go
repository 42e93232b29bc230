package service

import (
	"context"
	"course_sync/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SyncScheduler 定时全量同步：启动后延迟一次，然后按固定间隔执行
type SyncScheduler struct {
	Job     func(ctx context.Context) error
	Timeout time.Duration

	mu           sync.Mutex
	interval     time.Duration
	initialDelay time.Duration
	cron         *cron.Cron
	delayTimer   *time.Timer
}

func NewSyncScheduler(syncService *SyncService, interval, initialDelay time.Duration) *SyncScheduler {
	return &SyncScheduler{
		Job: func(ctx context.Context) error {
			_, err := syncService.SyncAll(ctx)
			return err
		},
		Timeout:      syncService.Timeout,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

func (s *SyncScheduler) run() {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Job(ctx); err != nil {
		logger.Log.Error("Periodic sync failed", zap.Error(err))
	}
}

// Start 已在运行时不做任何事
func (s *SyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start()
}

func (s *SyncScheduler) start() error {
	if s.cron != nil {
		return nil
	}
	if s.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", s.interval)
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.run); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	s.delayTimer = time.AfterFunc(s.initialDelay, s.run)

	logger.Log.Info("Sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("initialDelay", s.initialDelay))
	return nil
}

// Stop 停止后续调度，不取消正在执行的同步
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

func (s *SyncScheduler) stop() {
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
		logger.Log.Info("Sync scheduler stopped")
	}
}

// Restart 用户变化时重新开始计时
func (s *SyncScheduler) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	return s.start()
}

// UpdateInterval 配置热更新；运行中则按新间隔重启
func (s *SyncScheduler) UpdateInterval(interval, initialDelay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.interval && initialDelay == s.initialDelay {
		return nil
	}
	s.interval = interval
	s.initialDelay = initialDelay
	if s.cron == nil {
		return nil
	}
	s.stop()
	return s.start()
}

func (s *SyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *SyncScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
