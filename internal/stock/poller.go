package stock

import (
	"context"
	"time"
)

// DefaultInterval is how often the periodic stock check runs.
const DefaultInterval = 20 * time.Second

// Poller drives periodic reconciliation for one user's cart. It is an
// explicit start/stop handle: Start launches the loop, Stop cancels it and
// waits for it to drain, so no ticker outlives the checkout session.
type Poller struct {
	interval   time.Duration
	reconciler *Reconciler
	userID     string
	notify     func([]Advisory)

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(reconciler *Reconciler, userID string, interval time.Duration, notify func([]Advisory)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval:   interval,
		reconciler: reconciler,
		userID:     userID,
		notify:     notify,
	}
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		p.Run(ctx)
	}()
}

// Stop cancels the loop and blocks until it has exited. Safe to call when
// the poller never started.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if advisories := p.reconciler.CheckOnce(ctx, p.userID); len(advisories) > 0 && p.notify != nil {
				p.notify(advisories)
			}
		case <-ctx.Done():
			return
		}
	}
}
