package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"hookd/internal/engine/webhooks"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

const claimBatchSize = 100

// Pool polls for due deliveries and dispatches them on a bounded set of
// workers. Different deliveries run fully in parallel; the in-flight set keyed
// by delivery id guarantees at-most-one worker per delivery, which keeps each
// delivery's attempts counter and status transitions strictly sequential.
type Pool struct {
	deliveries   *repositories.DeliveryRepository
	dispatcher   *webhooks.Dispatcher
	workerCount  int
	pollInterval time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	jobs     chan *models.Delivery
}

func NewPool(deliveries *repositories.DeliveryRepository, dispatcher *webhooks.Dispatcher, workerCount int, pollInterval time.Duration) *Pool {
	if workerCount <= 0 {
		workerCount = 4
	}
	return &Pool{
		deliveries:   deliveries,
		dispatcher:   dispatcher,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		inFlight:     make(map[string]bool),
		jobs:         make(chan *models.Delivery),
	}
}

// Run blocks until ctx is cancelled, then drains in-flight attempts.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx)
		}()
	}

	log.Info().Int("workers", p.workerCount).Dur("poll_interval", p.pollInterval).
		Msg("dispatch pool started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			close(p.jobs)
			wg.Wait()
			log.Info().Msg("dispatch pool stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll claims due deliveries and hands them to workers. A delivery already
// being processed is skipped, not re-queued.
func (p *Pool) poll(ctx context.Context) {
	due, err := p.deliveries.ListDue(time.Now().Unix(), claimBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list due deliveries")
		return
	}

	for _, delivery := range due {
		if !p.claim(delivery.ID) {
			continue
		}
		select {
		case p.jobs <- delivery:
		case <-ctx.Done():
			p.release(delivery.ID)
			return
		}
	}
}

func (p *Pool) work(ctx context.Context) {
	for delivery := range p.jobs {
		p.dispatcher.Attempt(ctx, delivery)
		p.release(delivery.ID)
	}
}

func (p *Pool) claim(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[id] {
		return false
	}
	p.inFlight[id] = true
	return true
}

func (p *Pool) release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, id)
}
