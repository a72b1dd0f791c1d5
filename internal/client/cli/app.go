package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/cart"
	"github.com/dmitrijs2005/flockapp/internal/client/config"
	"github.com/dmitrijs2005/flockapp/internal/client/coordinator"
	"github.com/dmitrijs2005/flockapp/internal/client/live"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/flockapp/internal/client/services"
	"github.com/dmitrijs2005/flockapp/internal/client/session"
	"github.com/dmitrijs2005/flockapp/internal/client/storage"
	"github.com/dmitrijs2005/flockapp/internal/cryptox"
	"github.com/dmitrijs2005/flockapp/internal/filex"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/dmitrijs2005/flockapp/internal/watch"
	"golang.org/x/term"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const onlineCheckInterval = 15 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	api     *api.Client
	session *session.Store
	auth    services.AuthService
	catalog services.CatalogService
	cart    *cart.Manager
	live    *live.Manager
	coord   *coordinator.Coordinator

	// synced is the identity the cart and live managers last switched to.
	synced *watch.Value[models.Identity]

	mu   sync.Mutex
	Mode Mode

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(c.LogLevel))

	if _, err := filex.EnsureDir(c.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := storage.InitDatabase(ctx, c.DBPath())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	key, err := cryptox.LoadOrCreateKey(c.KeyPath())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("device key: %w", err)
	}

	opener := &browserOpener{out: os.Stdout, launch: term.IsTerminal(int(os.Stdout.Fd())), log: logger}
	app := newApp(c, credentials.NewSQLiteRepository(db, key), opener, logger, os.Stdin, os.Stdout)
	app.db = db
	return app, nil
}

// newApp wires the client around creds; the caller owns any resources behind
// it.
func newApp(c *config.Config, creds credentials.Repository, opener cart.URLOpener, logger logging.Logger, in io.Reader, out io.Writer) *App {
	apiClient := api.NewClient(c.APIBaseURL, c.RequestTimeout, nil, logger)
	store := session.NewStore(creds, apiClient, logger)
	apiClient.SetTokenSource(store)

	cartManager := cart.NewManager(apiClient, opener, cart.Config{
		SuccessURL:         c.SuccessURL,
		FailureURL:         c.FailureURL,
		PaymentURLTemplate: c.PaymentURLTemplate,
	}, logger)
	liveManager := live.NewManager(apiClient, store, logger)

	app := &App{
		config:  c,
		logger:  logger,
		api:     apiClient,
		session: store,
		auth:    services.NewAuthService(apiClient, store, logger),
		catalog: services.NewCatalogService(apiClient),
		cart:    cartManager,
		live:    liveManager,
		synced:  watch.NewValue(models.Identity{}),
		reader:  bufio.NewReader(in),
		out:     out,
	}

	app.coord = coordinator.New(store, map[string]coordinator.Dependent{
		"cart": cartManager,
		"live": liveManager,
	}, logger)
	app.coord.Applied = app.synced.Set

	return app
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.session.Identity().Authenticated()
}

func (a *App) getStatus() string {
	s := ""
	if d := a.session.Identity().Details; d != nil {
		s = d.Email + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run restores the previous session, starts the background workers and
// blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to Flock CLI (type 'help' for commands)")

	if id := a.auth.Restore(ctx); id.Authenticated() {
		fmt.Fprintf(a.out, "Signed in as %s\n", displayName(id))
	}

	go func() {
		_ = a.coord.Run(ctx)
	}()
	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// StartOnlineStatusWatcher pings the backend every interval and updates Mode
// until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// awaitSynced waits until the cart and live managers have switched to id, so
// the next command sees the new user's state.
func (a *App) awaitSynced(ctx context.Context, id models.Identity) {
	done := make(chan struct{})
	var once sync.Once
	cancel := a.synced.Subscribe(func(got models.Identity) {
		if got.UserID == id.UserID {
			once.Do(func() { close(done) })
		}
	})
	defer cancel()

	if a.synced.Get().UserID == id.UserID {
		return
	}

	timer := time.NewTimer(2 * a.config.RequestTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		a.logger.Warn(ctx, "identity sync is taking long", "user_id", id.UserID)
	case <-ctx.Done():
	}
}

func displayName(id models.Identity) string {
	if id.Details == nil {
		return id.UserID
	}
	return fmt.Sprintf("%s %s <%s>", id.Details.FirstName, id.Details.LastName, id.Details.Email)
}
