package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityAPI struct {
	details *models.UserDetails
	err     error
	calls   int

	// hook runs inside VerifyToken, before it returns
	hook func()
}

func (f *fakeIdentityAPI) VerifyToken(context.Context) (*models.UserDetails, error) {
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	return f.details, f.err
}

type brokenRepo struct {
	credentials.Repository
}

func (brokenRepo) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (brokenRepo) Delete(context.Context, string) error          { return errors.New("disk gone") }

func newStore(t *testing.T, f *fakeIdentityAPI) (*Store, *credentials.MemoryRepository) {
	t.Helper()
	repo := credentials.NewMemoryRepository()
	return NewStore(repo, f, logging.Discard()), repo
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

var ada = &models.UserDetails{ID: "u1", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Zone: "Lagos"}

func TestRefetchUser_NoTokenIsUnauthenticated(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)

	id := s.RefetchUser(context.Background())

	assert.False(t, id.Authenticated())
	assert.Nil(t, id.Details)
	assert.Zero(t, f.calls, "no request without a token")
}

func TestLoginThenRefetch_ResolvesIdentity(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "opaque-token"))
	assert.True(t, s.HasToken(ctx))
	assert.False(t, s.Identity().Authenticated(), "login alone does not hydrate identity")

	id := s.RefetchUser(ctx)
	require.True(t, id.Authenticated())
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, *ada, *id.Details)
	assert.Equal(t, id, s.Identity())
}

func TestRefetchUser_FailureClearsIdentity(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "tok"))
	require.True(t, s.RefetchUser(ctx).Authenticated())

	for _, err := range []error{
		&api.APIError{StatusCode: 401, Message: "invalid token"},
		&api.TransportError{Err: errors.New("dial tcp: refused")},
		api.ErrMalformedResponse,
	} {
		f.details, f.err = nil, err
		id := s.RefetchUser(ctx)
		assert.Equal(t, models.Identity{}, id)
		assert.Equal(t, models.Identity{}, s.Identity())

		f.details, f.err = ada, nil
		require.True(t, s.RefetchUser(ctx).Authenticated())
	}
}

func TestRefetchUser_ExpiredJWTSkipsNetworkAndDropsToken(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, signedToken(t, time.Now().Add(-time.Minute))))

	id := s.RefetchUser(ctx)
	assert.False(t, id.Authenticated())
	assert.Zero(t, f.calls)
	assert.False(t, s.HasToken(ctx))
}

func TestRefetchUser_ValidJWTGoesToServer(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, signedToken(t, time.Now().Add(time.Hour))))
	assert.True(t, s.RefetchUser(ctx).Authenticated())
	assert.Equal(t, 1, f.calls)
}

func TestRefetchUser_TokenReadErrorIsUnauthenticated(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s := NewStore(brokenRepo{}, f, logging.Discard())

	assert.False(t, s.RefetchUser(context.Background()).Authenticated())
	assert.False(t, s.HasToken(context.Background()))
}

func TestLogout_ClearsTokenAndIdentity(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, repo := newStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "tok"))
	s.RefetchUser(ctx)

	var seen []models.Identity
	cancel := s.Subscribe(func(id models.Identity) { seen = append(seen, id) })
	defer cancel()

	require.NoError(t, s.Logout(ctx))

	assert.Equal(t, models.Identity{}, s.Identity())
	v, _ := repo.Get(ctx, credentials.KeyAuthToken)
	assert.Nil(t, v)
	assert.Equal(t, []models.Identity{{}}, seen)
}

func TestLogout_DeleteFailureStillClearsIdentity(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "tok"))
	s.RefetchUser(ctx)

	s.creds = brokenRepo{}
	require.Error(t, s.Logout(ctx))
	assert.False(t, s.Identity().Authenticated())
}

func TestRefetchUser_LogoutDuringVerificationWins(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "tok"))

	f.hook = func() { require.NoError(t, s.Logout(ctx)) }

	id := s.RefetchUser(ctx)
	assert.False(t, id.Authenticated(), "a verification for a logged-out token must not be applied")
	assert.False(t, s.Identity().Authenticated())
}

func TestSubscribe_OnlyOnChange(t *testing.T) {
	f := &fakeIdentityAPI{details: ada}
	s, _ := newStore(t, f)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "tok"))

	calls := 0
	cancel := s.Subscribe(func(models.Identity) { calls++ })
	defer cancel()

	s.RefetchUser(ctx)
	s.RefetchUser(ctx)
	assert.Equal(t, 1, calls, "re-verifying the same user is not a change")
}

func TestLogin_RejectsEmptyToken(t *testing.T) {
	s, _ := newStore(t, &fakeIdentityAPI{})
	require.ErrorIs(t, s.Login(context.Background(), ""), ErrEmptyToken)
}

func TestRememberEmail(t *testing.T) {
	s, _ := newStore(t, &fakeIdentityAPI{})
	ctx := context.Background()

	email, err := s.LastEmail(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)

	require.NoError(t, s.RememberEmail(ctx, "ada@example.com"))
	email, err = s.LastEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}
