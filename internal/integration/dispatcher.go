package integration

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one best-effort delivery.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// DefaultDispatcherConfig is used for zero values.
var DefaultDispatcherConfig = DispatcherConfig{
	Workers:   2,
	QueueSize: 64,
	Timeout:   15 * time.Second,
}

// Dispatcher runs jobs on a fixed set of workers fed by a buffered queue.
//
// LIFECYCLE:
//   - Start launches the workers once; later calls do nothing.
//   - Submit never blocks. A full queue or a stopped dispatcher drops the
//     job and logs it.
//   - Stop refuses new jobs, lets the workers finish what is queued and
//     waits for them.
//
// Each job gets its own timeout context that is not tied to the request
// that produced it, since the request is usually finished by then.
type Dispatcher struct {
	cfg    DispatcherConfig
	logger *slog.Logger
	jobs   chan Job

	mu      sync.RWMutex
	stopped bool

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultDispatcherConfig.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDispatcherConfig.Timeout
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan Job, cfg.QueueSize),
	}
}

func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.logger.Info("starting integration dispatcher",
			slog.Int("workers", d.cfg.Workers),
			slog.Int("queueSize", d.cfg.QueueSize),
		)
		for range d.cfg.Workers {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Submit queues job and reports whether it was accepted.
func (d *Dispatcher) Submit(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Warn("dispatcher stopped, dropping job", slog.String("job", job.Name))
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.logger.Warn("dispatcher queue full, dropping job", slog.String("job", job.Name))
		return false
	}
}

func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping integration dispatcher", slog.Int("pending", len(d.jobs)))
		d.mu.Lock()
		d.stopped = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("integration job panicked",
				slog.String("job", job.Name),
				slog.Any("panic", r),
			)
		}
	}()

	if err := job.Run(ctx); err != nil {
		d.logger.Error("integration job failed",
			slog.String("job", job.Name),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}
	d.logger.Debug("integration job done",
		slog.String("job", job.Name),
		slog.Duration("duration", time.Since(start)),
	)
}
