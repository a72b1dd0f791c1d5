// Package models defines the client-side data models shared by the API
// gateway, the state containers and the CLI.
package models

// UserDetails is the profile resolved from a verified auth token.
type UserDetails struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Zone      string `json:"zone"`
}

// Identity is the resolved authenticated user. The zero value means "not
// authenticated". Details is non-nil only when UserID is set.
type Identity struct {
	UserID  string
	Details *UserDetails
}

// Authenticated reports whether a user is signed in.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// IdentityFrom builds an Identity from verified details. Details without an
// id yield the unauthenticated identity.
func IdentityFrom(d *UserDetails) Identity {
	if d == nil || d.ID == "" {
		return Identity{}
	}
	cp := *d
	return Identity{UserID: d.ID, Details: &cp}
}
