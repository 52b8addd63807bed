// Package ident classifies inquiry identifiers at the system boundary.
//
// Local identifiers are the 24-character hex strings issued by the document
// store. Anything else is an identifier minted by the external inquiry source.
// Both the reconciliation merge and the assignment lookup depend on the same
// classification, so it lives here and nowhere else.
package ident

// Kind distinguishes store-issued identifiers from externally sourced ones.
type Kind int

const (
	Local Kind = iota
	External
)

// Ref is an identifier tagged with its origin.
type Ref struct {
	Kind  Kind
	Value string
}

// IsLocalHex reports whether s is exactly 24 characters drawn from the
// hexadecimal alphabet.
func IsLocalHex(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Classify wraps a raw identifier in a tagged Ref.
func Classify(s string) Ref {
	if IsLocalHex(s) {
		return Ref{Kind: Local, Value: s}
	}
	return Ref{Kind: External, Value: s}
}

// IsLocal reports whether the ref is a store-issued identifier.
func (r Ref) IsLocal() bool {
	return r.Kind == Local
}
