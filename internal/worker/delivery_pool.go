package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type delivery struct {
	name string
	fn   func(context.Context) error
}

// DeliveryPool runs outbound notification deliveries off the request path.
type DeliveryPool struct {
	logger  *zap.Logger
	jobs    chan delivery
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

// NewDeliveryPool creates a pool with a bounded queue. Call Start before Submit.
func NewDeliveryPool(workers, queueSize int, timeout time.Duration, logger *zap.Logger) *DeliveryPool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryPool{
		logger:  logger,
		jobs:    make(chan delivery, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the workers. They exit when Stop drains the queue.
func (p *DeliveryPool) Start(ctx context.Context) {
	p.logger.Info("starting delivery pool", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(context.WithoutCancel(ctx))
	}
}

// Submit enqueues fn. A full queue drops the delivery and reports false.
func (p *DeliveryPool) Submit(name string, fn func(context.Context) error) (queued bool) {
	defer func() {
		// Submit after Stop closes the channel.
		if recover() != nil {
			queued = false
		}
	}()
	select {
	case p.jobs <- delivery{name: name, fn: fn}:
		return true
	default:
		p.logger.Warn("delivery queue full, dropping", zap.String("delivery", name))
		return false
	}
}

// Stop closes the queue and waits for in-flight deliveries or ctx, whichever is first.
func (p *DeliveryPool) Stop(ctx context.Context) {
	p.once.Do(func() { close(p.jobs) })
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("delivery pool stopped")
	case <-ctx.Done():
		p.logger.Warn("delivery pool stop timed out", zap.Int("pending", len(p.jobs)))
	}
}

func (p *DeliveryPool) run(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.execute(ctx, job)
	}
}

func (p *DeliveryPool) execute(ctx context.Context, job delivery) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("delivery panicked", zap.String("delivery", job.name), zap.Any("panic", r))
		}
	}()
	jobCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := job.fn(jobCtx); err != nil {
		p.logger.Warn("delivery failed", zap.String("delivery", job.name), zap.Error(err))
	}
}
