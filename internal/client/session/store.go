// Package session owns the client's authentication state: the persisted auth
// token and the identity resolved from it.
//
// It is the only writer of the credential store. Dependent state containers
// observe identity changes through Subscribe and never touch the raw token;
// the API gateway reads it through the api.TokenSource implementation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/dmitrijs2005/flockapp/internal/watch"
	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptyToken = errors.New("empty token")

// IdentityAPI resolves a token into a user profile.
type IdentityAPI interface {
	VerifyToken(ctx context.Context) (*models.UserDetails, error)
}

type Store struct {
	creds credentials.Repository
	api   IdentityAPI
	log   logging.Logger
	now   func() time.Time

	identity *watch.Value[models.Identity]

	mu sync.Mutex
	// version changes whenever the persisted token is replaced or removed, so
	// a verification started against an older token can be discarded.
	version uint64
}

var _ api.TokenSource = (*Store)(nil)

func NewStore(creds credentials.Repository, identityAPI IdentityAPI, log logging.Logger) *Store {
	return &Store{
		creds:    creds,
		api:      identityAPI,
		log:      log.With("component", "session"),
		now:      time.Now,
		identity: watch.NewValue(models.Identity{}),
	}
}

// Identity returns the current identity snapshot.
func (s *Store) Identity() models.Identity {
	return s.identity.Get()
}

// Subscribe registers fn for identity changes. fn runs synchronously while
// the store is locked and must not call back into Login, Logout or
// RefetchUser.
func (s *Store) Subscribe(fn func(models.Identity)) (cancel func()) {
	return s.identity.Subscribe(fn)
}

// Token implements api.TokenSource.
func (s *Store) Token(ctx context.Context) (string, error) {
	b, err := s.creds.Get(ctx, credentials.KeyAuthToken)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HasToken reports whether a credential is persisted. Read errors count as
// no token.
func (s *Store) HasToken(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// RefetchUser resolves the persisted token into an identity. Any failure
// (missing token, expired token, network, 401, malformed response) leaves the
// session unauthenticated; it never returns an error.
func (s *Store) RefetchUser(ctx context.Context) models.Identity {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	token, err := s.Token(ctx)
	if err != nil {
		s.log.Warn(ctx, "read token failed", "err", err)
		return s.apply(ctx, version, models.Identity{})
	}
	if token == "" {
		return s.apply(ctx, version, models.Identity{})
	}

	if s.tokenExpired(token) {
		s.log.Info(ctx, "stored token expired, signing out")
		if err := s.creds.Delete(ctx, credentials.KeyAuthToken); err != nil {
			s.log.Warn(ctx, "delete expired token failed", "err", err)
		}
		return s.apply(ctx, version, models.Identity{})
	}

	details, err := s.api.VerifyToken(ctx)
	if err != nil {
		s.log.Warn(ctx, "token verification failed", "err", err)
		return s.apply(ctx, version, models.Identity{})
	}

	return s.apply(ctx, version, models.IdentityFrom(details))
}

// apply publishes id unless the token changed since version was read.
func (s *Store) apply(ctx context.Context, version uint64, id models.Identity) models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		s.log.Debug(ctx, "discarding stale identity", "user_id", id.UserID)
		return s.identity.Get()
	}
	s.publish(id)
	return id
}

// publish must be called with mu held.
func (s *Store) publish(id models.Identity) {
	if sameIdentity(s.identity.Get(), id) {
		return
	}
	s.identity.Set(id)
}

// Login persists token. Callers run RefetchUser afterwards to hydrate the
// identity.
func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.creds.Set(ctx, credentials.KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.version++
	return nil
}

// Logout deletes the persisted token and clears the identity. The identity is
// cleared even if the delete fails.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	err := s.creds.Delete(ctx, credentials.KeyAuthToken)
	s.publish(models.Identity{})

	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// RememberEmail caches the last sign-in email.
func (s *Store) RememberEmail(ctx context.Context, email string) error {
	return s.creds.Set(ctx, credentials.KeyLastEmail, []byte(email))
}

// LastEmail returns the cached sign-in email, or "".
func (s *Store) LastEmail(ctx context.Context) (string, error) {
	b, err := s.creds.Get(ctx, credentials.KeyLastEmail)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// tokenExpired reports whether token is a JWT whose exp is in the past.
// Tokens that are not JWTs are left to the server.
func (s *Store) tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now())
}

func sameIdentity(a, b models.Identity) bool {
	if a.UserID != b.UserID {
		return false
	}
	if a.Details == nil || b.Details == nil {
		return a.Details == b.Details
	}
	return *a.Details == *b.Details
}
