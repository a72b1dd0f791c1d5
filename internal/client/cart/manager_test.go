package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = map[string]models.Product{
	"p1": {ID: "p1", Name: "Tee", Price: 10},
	"p2": {ID: "p2", Name: "Mug", Price: 4.5},
}

// fakeAPI keeps one cart per user, like the backend does.
type fakeAPI struct {
	mu    sync.Mutex
	carts map[string][]models.CartItem
	calls []string
	seq   int

	fetchErr    error
	mutateErr   error
	checkoutRef string
	checkoutErr error
	checkouts   []api.CheckoutRequest
	decreases   []api.DecreaseRequest

	// fetchGate, when set, is received from before FetchCart answers.
	fetchGate chan struct{}
	// incGate, when set, is received from before IncreaseItem answers.
	incGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{carts: map[string][]models.CartItem{}, checkoutRef: "ref-1"}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) FetchCart(ctx context.Context, userID string) (models.Cart, error) {
	f.record("fetch:" + userID)
	f.mu.Lock()
	items := append([]models.CartItem{}, f.carts[userID]...)
	gate, err := f.fetchGate, f.fetchErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.Cart{}, ctx.Err()
		}
	}
	if err != nil {
		return models.Cart{}, err
	}
	return models.Cart{CartItems: items}, nil
}

func (f *fakeAPI) IncreaseItem(ctx context.Context, userID, productID string) error {
	f.record("increase:" + productID)
	f.mu.Lock()
	gate := f.incGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	for i, it := range f.carts[userID] {
		if it.ProductID == productID {
			f.carts[userID][i].Quantity++
			return nil
		}
	}
	f.seq++
	f.carts[userID] = append(f.carts[userID], models.CartItem{
		ID:        fmt.Sprintf("ci-%d", f.seq),
		ProductID: productID,
		Quantity:  1,
		Product:   catalog[productID],
	})
	return nil
}

func (f *fakeAPI) DecreaseItem(ctx context.Context, req api.DecreaseRequest) error {
	f.record("decrease")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decreases = append(f.decreases, req)
	if f.mutateErr != nil {
		return f.mutateErr
	}
	items := f.carts[req.UserID][:0]
	for _, it := range f.carts[req.UserID] {
		match := it.ID == req.CartItemID || (req.ProductID != "" && it.ProductID == req.ProductID)
		switch {
		case match && req.Remove:
			continue
		case match:
			it.Quantity = req.Quantity
		}
		items = append(items, it)
	}
	f.carts[req.UserID] = items
	return nil
}

func (f *fakeAPI) Checkout(ctx context.Context, req api.CheckoutRequest) (string, error) {
	f.record("checkout")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, req)
	return f.checkoutRef, f.checkoutErr
}

func (f *fakeAPI) seed(userID string, items ...models.CartItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = items
}

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(_ context.Context, u string) error {
	o.urls = append(o.urls, u)
	return o.err
}

var testConfig = Config{
	SuccessURL:         "flock://payment-success",
	FailureURL:         "flock://payment-failed",
	PaymentURLTemplate: "https://pay.example.com/checkout/{ref}",
}

func newManager(f *fakeAPI) (*Manager, *recordingOpener) {
	o := &recordingOpener{}
	return NewManager(f, o, testConfig, logging.Discard()), o
}

func ident(id string) models.Identity {
	return models.IdentityFrom(&models.UserDetails{ID: id})
}

func line(id, productID string, qty int) models.CartItem {
	return models.CartItem{ID: id, ProductID: productID, Quantity: qty, Product: catalog[productID]}
}

func productIDs(s State) []string {
	ids := []string{}
	for _, it := range s.Cart.CartItems {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func TestFetchCart_NoIdentityIsEmptyWithoutRequest(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)

	require.NoError(t, m.FetchCart(context.Background()))

	assert.NotNil(t, m.State().Cart.CartItems)
	assert.Empty(t, m.State().Cart.CartItems)
	assert.Empty(t, f.Calls())
}

func TestFetchCart_MalformedResponseFallsBackToEmpty(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 1))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))
	require.Len(t, m.State().Cart.CartItems, 1)

	f.fetchErr = fmt.Errorf("cart: %w", api.ErrMalformedResponse)
	require.NoError(t, m.FetchCart(ctx))

	assert.NotNil(t, m.State().Cart.CartItems)
	assert.Empty(t, m.State().Cart.CartItems)
	assert.Empty(t, m.State().Error)
}

func TestFetchCart_TransportErrorKeepsCartAndReports(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 1))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	f.fetchErr = &api.TransportError{Err: errors.New("connection refused")}
	err := m.FetchCart(ctx)

	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, "connection refused", m.State().Error)
	assert.Equal(t, []string{"p1"}, productIDs(m.State()))
	assert.False(t, m.State().Fetching)
}

func TestFetchCart_DropsZeroQuantityLines(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 0), line("i2", "p2", 3))
	m, _ := newManager(f)

	require.NoError(t, m.SetIdentity(context.Background(), ident("a")))
	assert.Equal(t, []string{"p2"}, productIDs(m.State()))
}

func TestState_ReturnsIndependentSnapshot(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 2))
	m, _ := newManager(f)
	require.NoError(t, m.SetIdentity(context.Background(), ident("a")))

	s := m.State()
	s.Cart.CartItems[0].Quantity = 99

	assert.Equal(t, 2, m.State().Cart.CartItems[0].Quantity)
}

func TestAddToCart_ReconcilesWithServer(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	require.NoError(t, m.AddToCart(ctx, catalog["p1"]))
	require.NoError(t, m.IncreaseQuantity(ctx, "p1"))

	items := m.State().Cart.CartItems
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, []string{"fetch:a", "increase:p1", "fetch:a", "increase:p1", "fetch:a"}, f.Calls())
}

func TestMutation_FailureLeavesStateAndReturnsError(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 2))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))
	before := m.State()

	f.mutateErr = &api.APIError{StatusCode: 400, Message: "Out of stock"}
	err := m.IncreaseQuantity(ctx, "p1")

	require.Error(t, err)
	assert.Equal(t, "Out of stock", api.Message(err))
	assert.Equal(t, before, m.State())
	assert.Equal(t, []string{"fetch:a", "increase:p1"}, f.Calls(), "no reconciliation after a failed mutation")
}

func TestMutation_RequiresIdentity(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)

	require.ErrorIs(t, m.AddToCart(context.Background(), catalog["p1"]), ErrNotSignedIn)
	assert.Empty(t, f.Calls())
}

func TestDecreaseQuantity_ToZeroRemovesLocally(t *testing.T) {
	for _, q := range []int{0, -1} {
		t.Run(fmt.Sprint(q), func(t *testing.T) {
			f := newFakeAPI()
			f.seed("a", line("i1", "p1", 2), line("i2", "p2", 1))
			m, _ := newManager(f)
			ctx := context.Background()
			require.NoError(t, m.SetIdentity(ctx, ident("a")))

			require.NoError(t, m.DecreaseQuantity(ctx, "p1", q))

			assert.Equal(t, []string{"p2"}, productIDs(m.State()))
			assert.Equal(t, []api.DecreaseRequest{{UserID: "a", ProductID: "p1", Remove: true}}, f.decreases)
			assert.Equal(t, []string{"fetch:a", "decrease"}, f.Calls())
		})
	}
}

func TestDecreaseQuantity_PositiveReconciles(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 3))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	require.NoError(t, m.DecreaseQuantity(ctx, "p1", 1))

	assert.Equal(t, 1, m.State().Cart.CartItems[0].Quantity)
	assert.Equal(t, []api.DecreaseRequest{{UserID: "a", ProductID: "p1", Quantity: 1}}, f.decreases)
	assert.Equal(t, []string{"fetch:a", "decrease", "fetch:a"}, f.Calls())
}

func TestRemoveCartItemByID_OptimisticWithoutRefetch(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 1), line("i2", "p2", 1))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	require.NoError(t, m.RemoveCartItemByID(ctx, "i2"))

	assert.Equal(t, []string{"p1"}, productIDs(m.State()))
	assert.Equal(t, []api.DecreaseRequest{{UserID: "a", CartItemID: "i2", Remove: true}}, f.decreases)
	assert.Equal(t, []string{"fetch:a", "decrease"}, f.Calls())
}

func TestCheckout_EmptyCartMakesNoRequest(t *testing.T) {
	f := newFakeAPI()
	m, o := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	u, err := m.Checkout(ctx)
	require.NoError(t, err)
	assert.Empty(t, u)
	assert.Equal(t, []string{"fetch:a"}, f.Calls())
	assert.Empty(t, o.urls)
}

func TestCheckout_SubmitsTotalsAndOpensPaymentPage(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 2))
	f.checkoutRef = "abc 123"
	m, o := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	var loadingSeen bool
	cancel := m.Subscribe(func(s State) {
		if s.Loading {
			loadingSeen = true
		}
	})
	defer cancel()

	u, err := m.Checkout(ctx)
	require.NoError(t, err)

	require.Len(t, f.checkouts, 1)
	assert.Equal(t, api.CheckoutRequest{
		Narration:  "2x Tee",
		TotalPrice: 20,
		UserID:     "a",
		SuccessURL: "flock://payment-success",
		FailureURL: "flock://payment-failed",
	}, f.checkouts[0])
	assert.Equal(t, "https://pay.example.com/checkout/abc%20123", u)
	assert.Equal(t, []string{u}, o.urls)
	assert.True(t, loadingSeen)
	assert.False(t, m.State().Loading)
}

func TestCheckout_ErrorsAreRecordedAndLoadingCleared(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("i1", "p1", 1))
	f.checkoutErr = &api.APIError{StatusCode: 502, Message: "Payment provider down"}
	m, o := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	_, err := m.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, "Payment provider down", m.State().Error)
	assert.False(t, m.State().Loading)
	assert.Empty(t, o.urls)

	f.checkoutErr = nil
	o.err = errors.New("no browser")
	_, err = m.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, api.GenericMessage, m.State().Error)
	assert.False(t, m.State().Loading)
}

func TestSwitchingUser_NoItemsFromPreviousUser(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("ia", "p1", 2))
	f.seed("b", line("ib", "p2", 1))
	m, _ := newManager(f)
	ctx := context.Background()

	require.NoError(t, m.SetIdentity(ctx, ident("a")))
	assert.Equal(t, []string{"p1"}, productIDs(m.State()))

	var seen []State
	cancel := m.Subscribe(func(s State) { seen = append(seen, s) })
	defer cancel()

	require.NoError(t, m.SetIdentity(ctx, ident("b")))
	assert.Equal(t, []string{"p2"}, productIDs(m.State()))
	for _, s := range seen {
		assert.NotContains(t, productIDs(s), "p1")
	}

	require.NoError(t, m.SetIdentity(ctx, models.Identity{}))
	assert.Empty(t, m.State().Cart.CartItems)
	assert.Equal(t, []string{"fetch:a", "fetch:b"}, f.Calls())
}

func TestStaleFetchAfterIdentityChangeIsDiscarded(t *testing.T) {
	f := newFakeAPI()
	f.seed("a", line("ia", "p1", 2))
	f.seed("b", line("ib", "p2", 1))
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	gate := make(chan struct{})
	f.mu.Lock()
	f.fetchGate = gate
	f.mu.Unlock()

	staleDone := make(chan error, 1)
	go func() { staleDone <- m.FetchCart(ctx) }()
	require.Eventually(t, func() bool { return len(f.Calls()) == 2 }, time.Second, time.Millisecond)

	switchDone := make(chan error, 1)
	go func() { switchDone <- m.SetIdentity(ctx, ident("b")) }()
	require.Eventually(t, func() bool { return len(m.State().Cart.CartItems) == 0 }, time.Second, time.Millisecond)

	close(gate)
	require.NoError(t, <-staleDone)
	require.NoError(t, <-switchDone)

	assert.Equal(t, []string{"p2"}, productIDs(m.State()))
	assert.Equal(t, []string{"fetch:a", "fetch:a", "fetch:b"}, f.Calls())
}

func TestQueuedMutationForPreviousUserIsDropped(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	gate := make(chan struct{})
	f.mu.Lock()
	f.incGate = gate
	f.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- m.IncreaseQuantity(ctx, "p1") }()
	require.Eventually(t, func() bool { return len(f.Calls()) == 2 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- m.IncreaseQuantity(ctx, "p2") }()
	// give the second action time to enter the queue
	time.Sleep(20 * time.Millisecond)

	switched := make(chan error, 1)
	go func() { switched <- m.SetIdentity(ctx, models.Identity{}) }()
	require.Eventually(t, func() bool { return m.current().userID == "" }, time.Second, time.Millisecond)

	close(gate)
	require.NoError(t, <-first)
	require.ErrorIs(t, <-second, ErrIdentityChanged)
	require.NoError(t, <-switched)

	assert.NotContains(t, f.Calls(), "increase:p2")
	assert.Empty(t, m.State().Cart.CartItems)
}

func TestRapidIncreases_NoLostUpdate(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	const n = 5
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.IncreaseQuantity(ctx, "p1"))
		}()
	}
	wg.Wait()

	items := m.State().Cart.CartItems
	require.Len(t, items, 1)
	assert.Equal(t, n, items[0].Quantity)

	calls := f.Calls()[1:]
	require.Len(t, calls, 2*n)
	for i := 0; i < len(calls); i += 2 {
		assert.Equal(t, "increase:p1", calls[i])
		assert.Equal(t, "fetch:a", calls[i+1], "each mutation is reconciled before the next starts")
	}
}

func TestEnqueue_CancelledWaiterKeepsOrder(t *testing.T) {
	f := newFakeAPI()
	m, _ := newManager(f)
	ctx := context.Background()
	require.NoError(t, m.SetIdentity(ctx, ident("a")))

	gate := make(chan struct{})
	f.mu.Lock()
	f.incGate = gate
	f.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- m.IncreaseQuantity(ctx, "p1") }()
	require.Eventually(t, func() bool { return len(f.Calls()) == 2 }, time.Second, time.Millisecond)

	cctx, cancel := context.WithCancel(ctx)
	cancelled := make(chan error, 1)
	go func() { cancelled <- m.IncreaseQuantity(cctx, "p2") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-cancelled, context.Canceled)

	third := make(chan error, 1)
	go func() { third <- m.FetchCart(ctx) }()

	close(gate)
	require.NoError(t, <-first)
	require.NoError(t, <-third)
	assert.Equal(t, []string{"fetch:a", "increase:p1", "fetch:a", "fetch:a"}, f.Calls())
}
