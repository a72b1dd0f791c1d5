// Package devserver is an in-memory implementation of the Flock backend API
// for local development and end-to-end tests of the client.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/devserver/config"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	store    *Store
	logger   logging.Logger
	secret   []byte
	tokenTTL time.Duration
	addr     string
}

func NewServer(cfg *config.Config, store *Store, l logging.Logger) *Server {
	return &Server{
		store:    store,
		logger:   l.With("module", "devserver"),
		secret:   []byte(cfg.SecretKey),
		tokenTTL: cfg.AccessTokenValidityDuration,
		addr:     cfg.ListenAddr,
	}
}

func (s *Server) Store() *Store { return s.store }

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "OK")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signin", s.signIn)
		r.Post("/signup", s.signUp)
		r.Post("/signup/verify", s.verifySignup)
		r.Post("/forgot-password", s.forgotPassword)
		r.Post("/newpassword", s.newPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/tokenverify", s.tokenVerify)
			r.Post("/change-password", s.changePassword)
		})
	})

	r.Get("/store/products", s.listProducts)
	r.Get("/events", s.listEvents)
	r.Get("/pay/{ref}", s.pay)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/cart", s.fetchCart)
		r.Patch("/cart/increase", s.increase)
		r.Patch("/cart/decrease", s.decrease)
		r.Post("/cart/checkout", s.checkout)

		r.Get("/livetv", s.liveProgram)
		r.Get("/livetv/comments", s.liveComments)
		r.Post("/livetv/comments", s.postComment)
		r.Post("/livetv/participate", s.participate)
	})

	return r
}

// Run serves on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
