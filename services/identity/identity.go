// Package identity is the pluggable identity-resolution port. How a
// logged-in student is detected is the embedding application's business;
// the core only consumes the resolved shape.
package identity

import (
	"regexp"

	"counselhub/models"
)

// Resolver reports the logged-in identity, when one exists. An identity
// without a valid email does not count as logged in for auto-start purposes.
type Resolver interface {
	Resolve() (*models.Identity, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func() (*models.Identity, bool)

func (f ResolverFunc) Resolve() (*models.Identity, bool) {
	return f()
}

// StaticResolver always reports the same identity. A nil identity means
// nobody is logged in.
type StaticResolver struct {
	Identity *models.Identity
}

func (r StaticResolver) Resolve() (*models.Identity, bool) {
	if r.Identity == nil {
		return nil, false
	}
	return r.Identity, true
}

// None resolves to no identity.
var None Resolver = StaticResolver{}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)

// ValidEmail checks the syntactic shape local-part "@" domain "." TLD.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
