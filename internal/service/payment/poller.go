package payment

import (
	"context"
	"io"
	"log"
	"time"

	"perle-storefront/internal/domain"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 15 * time.Second
)

type statusFetcher interface {
	GetOrderStatus(ctx context.Context, reference string) (*domain.OrderStatus, error)
}

// Poller queries order status until a terminal status is seen or the budget runs out.
// The budget is Timeout of wall time, with at most Timeout/Interval polls. A poll is
// issued only after the previous one returned, and Interval is waited between polls.
type Poller struct {
	fetcher  statusFetcher
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

func NewPoller(fetcher statusFetcher, interval, timeout time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Poller{fetcher: fetcher, interval: interval, timeout: timeout, logger: logger, wait: sleepCtx}
}

// MaxPolls is the upper bound on status checks made before the flow times out.
func (p *Poller) MaxPolls() int {
	n := int(p.timeout / p.interval)
	if n < 1 {
		n = 1
	}
	return n
}

// Run drives flow (which must be polling) to a terminal state. When the budget runs out,
// an in-flight poll is abandoned and the flow times out. It returns ctx.Err() if the
// caller goes away first; no poll is issued after that.
func (p *Poller) Run(ctx context.Context, flow Flow) (Flow, error) {
	budget, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	maxPolls := p.MaxPolls()
	for attempt := 1; attempt <= maxPolls; attempt++ {
		if attempt > 1 {
			if err := p.wait(budget, p.interval); err != nil {
				break
			}
		}
		if budget.Err() != nil {
			break
		}

		status, err := p.fetcher.GetOrderStatus(budget, flow.Reference)
		if err != nil {
			if budget.Err() != nil {
				break
			}
			p.logger.Printf("poll %d/%d for %s failed: %v", attempt, maxPolls, flow.Reference, err)
			continue
		}

		next, err := flow.Next(Event{Kind: EventStatusObserved, Status: status.PaymentStatus})
		if err != nil {
			return flow, err
		}
		flow = next
		if flow.State.Terminal() {
			return flow, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return flow, err
	}
	return flow.Next(Event{Kind: EventTimedOut})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
