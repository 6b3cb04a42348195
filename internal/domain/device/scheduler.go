package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

var (
	ErrSchedulerRunning = errors.New("scheduler already running")
	ErrInvalidInterval  = errors.New("interval must be positive")
)

// Scheduler периодически выполняет задачу. Следующий запуск начинается
// только после завершения предыдущего.
type Scheduler struct {
	task   func(ctx context.Context)
	log    *slog.Logger
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(task func(ctx context.Context), log *slog.Logger) *Scheduler {
	return &Scheduler{
		task: task,
		log:  log,
	}
}

// Start запускает цикл до отмены ctx или вызова Stop
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return ErrSchedulerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, interval, s.done)

	s.log.Info("Автосинхронизация запущена", "interval", interval)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Автосинхронизация остановлена")
			return
		case <-ticker.C:
			s.task(ctx)
		}
	}
}

// Stop останавливает цикл и ждет завершения текущего запуска
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Scheduler) runningLocked() bool {
	if s.done == nil {
		return false
	}

	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
