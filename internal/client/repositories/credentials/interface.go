// Package credentials stores the client's persisted secrets: the auth token
// and the cached sign-in email.
//
// Only the session store writes here; every other component reads identity
// through the session store instead of the raw credential.
package credentials

import "context"

// Well-known keys.
const (
	KeyAuthToken = "auth_token"
	KeyLastEmail = "last_email"
)

// Repository is a scoped key/value store. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
