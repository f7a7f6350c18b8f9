package ranger

import (
	"unicode"
	"unicode/utf8"
)

// Identity is the token the collector assigned to this node.  It is opaque;
// the only rules are the ones ValidIdentity checks.
type Identity string

// MaxIdentityLen is the longest identity the node accepts or persists
const MaxIdentityLen = 255

func (id Identity) String() string {
	return string(id)
}

// A valid identity is a non-empty string, at most MaxIdentityLen bytes, with
// no space or control characters.
func ValidIdentity(s string) bool {
	if len(s) == 0 || len(s) > MaxIdentityLen {
		return false
	}
	for _, r := range s {
		if r == utf8.RuneError || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IdentityStore holds at most one identity across power cycles
type IdentityStore interface {
	// Mount prepares the backing medium.  Only the first call does any
	// work; later calls return the first call's result.
	Mount() error
	// Load returns the stored identity.  ok is false, with a nil error,
	// when nothing is stored.
	Load() (id Identity, ok bool, err error)
	// Save replaces the stored identity
	Save(Identity) error
}
