package fragments

// Principal is the opaque result of authentication, produced by the HTTP
// layer's auth middleware. It is a closed set of variants: a bare identifier
// from simple credential schemes, or structured claims from token schemes.
type Principal interface {
	isPrincipal()
}

// SimplePrincipal is a bare string identifier, e.g. the username verified by
// HTTP Basic auth.
type SimplePrincipal string

func (SimplePrincipal) isPrincipal() {}

// ClaimsPrincipal carries the stable identifiers extracted from a verified
// token. Subject is the primary identifier; Email is the fallback.
type ClaimsPrincipal struct {
	Subject string
	Email   string
}

func (ClaimsPrincipal) isPrincipal() {}

// ResolveOwnerID derives the canonical owner identifier used as the storage
// partition key. A SimplePrincipal resolves to its own value unchanged; a
// ClaimsPrincipal resolves to Subject, falling back to Email. A principal
// yielding no identifier fails with ErrNoOwnerIdentity: the core never
// fabricates an owner.
func ResolveOwnerID(p Principal) (string, error) {
	switch v := p.(type) {
	case SimplePrincipal:
		if v == "" {
			return "", ErrNoOwnerIdentity
		}
		return string(v), nil
	case ClaimsPrincipal:
		if v.Subject != "" {
			return v.Subject, nil
		}
		if v.Email != "" {
			return v.Email, nil
		}
		return "", ErrNoOwnerIdentity
	}
	return "", ErrNoOwnerIdentity
}
