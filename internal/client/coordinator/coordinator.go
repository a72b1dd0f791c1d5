// Package coordinator turns identity changes into resets of the state
// containers that depend on the signed-in user.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"golang.org/x/sync/errgroup"
)

// IdentitySource publishes identity changes.
type IdentitySource interface {
	Identity() models.Identity
	Subscribe(fn func(models.Identity)) (cancel func())
}

// Dependent is a state container keyed to the current user.
type Dependent interface {
	SetIdentity(ctx context.Context, id models.Identity) error
}

type Coordinator struct {
	source     IdentitySource
	dependents map[string]Dependent
	log        logging.Logger

	mu      sync.Mutex
	queue   []models.Identity
	pending chan struct{}

	// Applied, when set, is called after every dependent has handled an
	// identity.
	Applied func(models.Identity)
}

// New returns a Coordinator fanning identity changes out to dependents,
// keyed by a name used in logs.
func New(source IdentitySource, dependents map[string]Dependent, log logging.Logger) *Coordinator {
	return &Coordinator{
		source:     source,
		dependents: dependents,
		log:        log.With("component", "coordinator"),
		pending:    make(chan struct{}, 1),
	}
}

// Run applies the current identity and then every change, in order, until
// ctx is done. Dependents handle one identity concurrently; the next change
// is applied only after all of them finished with the previous one.
func (c *Coordinator) Run(ctx context.Context) error {
	cancel := c.source.Subscribe(c.enqueue)
	defer cancel()

	c.apply(ctx, c.source.Identity())

	for {
		select {
		case <-c.pending:
			for _, id := range c.drain() {
				c.apply(ctx, id)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// enqueue runs inside the source's notification and must not block.
func (c *Coordinator) enqueue(id models.Identity) {
	c.mu.Lock()
	c.queue = append(c.queue, id)
	c.mu.Unlock()

	select {
	case c.pending <- struct{}{}:
	default:
	}
}

func (c *Coordinator) drain() []models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

func (c *Coordinator) apply(ctx context.Context, id models.Identity) {
	var g errgroup.Group
	for name, d := range c.dependents {
		g.Go(func() error {
			if err := d.SetIdentity(ctx, id); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Warn(ctx, "identity sync incomplete", "user_id", id.UserID, "err", err)
	}

	if c.Applied != nil {
		c.Applied(id)
	}
}
