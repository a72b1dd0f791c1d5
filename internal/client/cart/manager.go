// Package cart keeps the signed-in user's cart in sync with the backend.
//
// Every operation runs through a FIFO action queue: a mutation and the
// refetch that reconciles it finish before the next queued action starts, so
// a reconciliation never overwrites a later mutation. Responses are applied
// only if the identity they were requested for is still current.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/views"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/dmitrijs2005/flockapp/internal/watch"
)

var (
	ErrNotSignedIn = api.Precondition("Unauthorized: Please sign in to use the cart.")
	// ErrIdentityChanged is returned by an action that was queued for a user
	// who is no longer signed in.
	ErrIdentityChanged = errors.New("identity changed")
)

// API is the subset of the gateway the cart uses.
type API interface {
	FetchCart(ctx context.Context, userID string) (models.Cart, error)
	IncreaseItem(ctx context.Context, userID, productID string) error
	DecreaseItem(ctx context.Context, req api.DecreaseRequest) error
	Checkout(ctx context.Context, req api.CheckoutRequest) (string, error)
}

// URLOpener hands a URL to an external browser.
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

// URLOpenerFunc adapts a function to URLOpener.
type URLOpenerFunc func(ctx context.Context, url string) error

func (f URLOpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// Config holds checkout settings. PaymentURLTemplate contains "{ref}".
type Config struct {
	SuccessURL         string
	FailureURL         string
	PaymentURLTemplate string
}

// State is a snapshot of the cart container.
type State struct {
	Cart models.Cart
	// Fetching is set while the cart is being loaded.
	Fetching bool
	// Loading is set for the duration of a checkout.
	Loading bool
	Error   string
}

type Manager struct {
	api    API
	opener URLOpener
	cfg    Config
	log    logging.Logger

	state *watch.Value[State]

	mu     sync.Mutex
	userID string
	gen    uint64
	tail   chan struct{}
}

func NewManager(cartAPI API, opener URLOpener, cfg Config, log logging.Logger) *Manager {
	tail := make(chan struct{})
	close(tail)
	return &Manager{
		api:    cartAPI,
		opener: opener,
		cfg:    cfg,
		log:    log.With("component", "cart"),
		state:  watch.NewValue(State{Cart: models.EmptyCart()}),
		tail:   tail,
	}
}

// State returns a snapshot the caller may modify freely.
func (m *Manager) State() State {
	s := m.state.Get()
	s.Cart = s.Cart.Clone()
	return s
}

// Subscribe registers fn for state changes. fn must not call back into the
// manager.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	return m.state.Subscribe(fn)
}

// owner identifies the user an action was submitted for.
type owner struct {
	userID string
	gen    uint64
}

func (m *Manager) current() owner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owner{userID: m.userID, gen: m.gen}
}

// SetIdentity switches the cart to id. The previous user's cart is dropped
// before SetIdentity returns; it then waits for the new user's cart to load.
func (m *Manager) SetIdentity(ctx context.Context, id models.Identity) error {
	m.mu.Lock()
	if id.UserID == m.userID {
		m.mu.Unlock()
		return nil
	}
	m.userID = id.UserID
	m.gen++
	m.state.Set(State{Cart: models.EmptyCart()})
	m.mu.Unlock()

	return m.FetchCart(ctx)
}

// FetchCart replaces the cart with the server's copy. Without an identity the
// cart becomes empty and no request is made.
func (m *Manager) FetchCart(ctx context.Context) error {
	o := m.current()
	return m.enqueue(ctx, func(ctx context.Context) error {
		return m.fetch(ctx, o)
	})
}

// AddToCart adds one unit of product and reconciles.
func (m *Manager) AddToCart(ctx context.Context, product models.Product) error {
	return m.IncreaseQuantity(ctx, product.ID)
}

// IncreaseQuantity adds one unit of productID and reconciles.
func (m *Manager) IncreaseQuantity(ctx context.Context, productID string) error {
	return m.mutate(ctx, "increase", func(ctx context.Context, o owner) error {
		if err := m.api.IncreaseItem(ctx, o.userID, productID); err != nil {
			return err
		}
		return m.fetch(ctx, o)
	})
}

// DecreaseQuantity sets productID's quantity to newQuantity. A quantity of
// zero or less removes the line locally once the server confirms; otherwise
// the cart is reconciled.
func (m *Manager) DecreaseQuantity(ctx context.Context, productID string, newQuantity int) error {
	return m.mutate(ctx, "decrease", func(ctx context.Context, o owner) error {
		if newQuantity <= 0 {
			req := api.DecreaseRequest{UserID: o.userID, ProductID: productID, Remove: true}
			if err := m.api.DecreaseItem(ctx, req); err != nil {
				return err
			}
			m.removeLocal(o, func(it models.CartItem) bool { return it.ProductID == productID })
			return nil
		}

		req := api.DecreaseRequest{UserID: o.userID, ProductID: productID, Quantity: newQuantity}
		if err := m.api.DecreaseItem(ctx, req); err != nil {
			return err
		}
		return m.fetch(ctx, o)
	})
}

// RemoveCartItemByID deletes a cart line and filters it out locally. There is
// no reconciling fetch.
func (m *Manager) RemoveCartItemByID(ctx context.Context, itemID string) error {
	return m.mutate(ctx, "remove", func(ctx context.Context, o owner) error {
		req := api.DecreaseRequest{UserID: o.userID, CartItemID: itemID, Remove: true}
		if err := m.api.DecreaseItem(ctx, req); err != nil {
			return err
		}
		m.removeLocal(o, func(it models.CartItem) bool { return it.ID == itemID })
		return nil
	})
}

// Checkout opens a payment session for the current cart and hands the
// payment URL to the opener. An empty cart is a no-op returning "". Failures
// are logged and recorded in State.Error as well as returned.
func (m *Manager) Checkout(ctx context.Context) (string, error) {
	o := m.current()
	if o.userID == "" {
		return "", ErrNotSignedIn
	}

	var paymentURL string
	err := m.enqueue(ctx, func(ctx context.Context) error {
		if m.current().gen != o.gen {
			return ErrIdentityChanged
		}

		cart := m.state.Get().Cart
		total := views.TotalPrice(cart)
		if total <= 0 {
			return nil
		}

		m.apply(o, func(s State) State {
			s.Loading = true
			s.Error = ""
			return s
		})
		defer m.state.Update(func(s State) State {
			s.Loading = false
			return s
		})

		ref, err := m.api.Checkout(ctx, api.CheckoutRequest{
			Narration:  views.Narration(cart),
			TotalPrice: total,
			UserID:     o.userID,
			SuccessURL: m.cfg.SuccessURL,
			FailureURL: m.cfg.FailureURL,
		})
		if err != nil {
			return m.fail(ctx, o, "checkout", err)
		}

		u := strings.ReplaceAll(m.cfg.PaymentURLTemplate, "{ref}", url.PathEscape(ref))
		if err := m.opener.Open(ctx, u); err != nil {
			return m.fail(ctx, o, "open payment page", err)
		}
		paymentURL = u
		return nil
	})
	return paymentURL, err
}

// mutate runs fn in the queue for the identity current at submission time.
// A failed mutation leaves the cart untouched and returns the error.
func (m *Manager) mutate(ctx context.Context, op string, fn func(context.Context, owner) error) error {
	o := m.current()
	if o.userID == "" {
		return ErrNotSignedIn
	}

	return m.enqueue(ctx, func(ctx context.Context) error {
		if m.current().gen != o.gen {
			return ErrIdentityChanged
		}
		if err := fn(ctx, o); err != nil {
			m.log.Warn(ctx, "cart mutation failed", "op", op, "user_id", o.userID, "err", err)
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

// enqueue runs fn after every previously queued action has finished. If ctx
// ends while waiting, fn is skipped and the queue still advances in order.
func (m *Manager) enqueue(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	prev := m.tail
	done := make(chan struct{})
	m.tail = done
	m.mu.Unlock()

	select {
	case <-prev:
	case <-ctx.Done():
		go func() {
			<-prev
			close(done)
		}()
		return ctx.Err()
	}

	defer close(done)
	return fn(ctx)
}

// fetch must run inside the queue.
func (m *Manager) fetch(ctx context.Context, o owner) error {
	if o.userID == "" {
		m.apply(o, func(s State) State {
			s.Cart = models.EmptyCart()
			s.Error = ""
			return s
		})
		return nil
	}

	m.apply(o, func(s State) State {
		s.Fetching = true
		return s
	})

	cart, err := m.api.FetchCart(ctx, o.userID)
	switch {
	case errors.Is(err, api.ErrMalformedResponse):
		m.log.Warn(ctx, "malformed cart response, using empty cart", "user_id", o.userID, "err", err)
		cart = models.EmptyCart()
	case err != nil:
		m.apply(o, func(s State) State {
			s.Fetching = false
			return s
		})
		return m.fail(ctx, o, "fetch cart", err)
	}

	m.apply(o, func(s State) State {
		s.Cart = withoutEmptyLines(cart)
		s.Fetching = false
		s.Error = ""
		return s
	})
	return nil
}

func (m *Manager) fail(ctx context.Context, o owner, op string, err error) error {
	m.log.Error(ctx, op+" failed", "user_id", o.userID, "err", err)
	m.apply(o, func(s State) State {
		s.Error = api.Message(err)
		return s
	})
	return fmt.Errorf("%s: %w", op, err)
}

func (m *Manager) removeLocal(o owner, match func(models.CartItem) bool) {
	m.apply(o, func(s State) State {
		items := make([]models.CartItem, 0, len(s.Cart.CartItems))
		for _, it := range s.Cart.CartItems {
			if !match(it) {
				items = append(items, it)
			}
		}
		s.Cart = models.Cart{CartItems: items}
		return s
	})
}

// apply updates the state unless the identity changed since o was taken.
func (m *Manager) apply(o owner, fn func(State) State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != o.gen {
		return
	}
	m.state.Update(fn)
}

func withoutEmptyLines(c models.Cart) models.Cart {
	items := make([]models.CartItem, 0, len(c.CartItems))
	for _, it := range c.CartItems {
		if it.Quantity > 0 {
			items = append(items, it)
		}
	}
	return models.Cart{CartItems: items}
}
