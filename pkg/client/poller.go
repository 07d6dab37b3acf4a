package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultKitchenInterval matches the kitchen board's refresh cadence.
const DefaultKitchenInterval = 15 * time.Second

// KitchenHandler receives each poll result. Exactly one of orders/err is
// meaningful per call; a failed poll does not stop the poller.
type KitchenHandler func(orders []Order, err error)

// Poller periodically fetches the kitchen board so a station picks up
// changes made by other clients. It fetches once immediately on Start and
// stops on Stop or when the start context is cancelled, whichever first.
type Poller struct {
	api      *Client
	interval time.Duration
	handler  KitchenHandler

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewKitchenPoller(api *Client, interval time.Duration, handler KitchenHandler) *Poller {
	if interval <= 0 {
		interval = DefaultKitchenInterval
	}
	return &Poller{
		api:      api,
		interval: interval,
		handler:  handler,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.started.Store(true)
	go p.run(ctx)
}

// Stop halts polling and waits for the loop to exit. Safe to call more than
// once, after context cancellation, and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if !p.started.Load() {
		return
	}
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	orders, err := p.api.KitchenOrders(ctx)
	p.handler(orders, err)
}
