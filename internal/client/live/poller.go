package live

import (
	"context"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/logging"
)

// Poller keeps the comment feed fresh while a program is loaded.
type Poller struct {
	m        *Manager
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
}

// NewPoller returns a Poller refreshing every interval. Each refresh is
// bounded by timeout; zero means interval.
func NewPoller(m *Manager, interval, timeout time.Duration, log logging.Logger) *Poller {
	if timeout <= 0 {
		timeout = interval
	}
	return &Poller{m: m, interval: interval, timeout: timeout, log: log.With("component", "live-poller")}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	s := p.m.State()
	if s.ProgramStatus != ProgramLoaded || s.ProgramID() == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.m.FetchLiveComments(ctx); err != nil {
		p.log.Debug(ctx, "comment refresh failed", "err", err)
	}
}
