package jwt

import (
	"fmt"
	"strings"
	"time"
)

// Registered claim names (RFC 7519 section 4.1).
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimID        = "jti"
)

// Header names set by the builder.
const (
	HeaderAlgorithm = "alg"
	HeaderType      = "typ"
	HeaderKeyID     = "kid"
)

// Builder accumulates claims and headers for a single token.
// A Builder is not safe for concurrent use and can be signed once.
type Builder struct {
	headers *dataSet
	claims  *dataSet
	err     error
	signed  bool
}

// NewBuilder creates an empty builder with the "typ" header preset to JWT.
func NewBuilder() *Builder {
	b := &Builder{
		headers: newDataSet(),
		claims:  newDataSet(),
	}
	b.headers.set(HeaderType, "JWT")
	return b
}

// WithClaim sets a claim. time.Time values for exp, nbf and iat are stored
// as NumericDate seconds; the audience claim accepts a string, []string or
// a []any holding only strings.
func (b *Builder) WithClaim(name string, value any) *Builder {
	if name == "" {
		b.fail(ErrInvalidClaimName)
		return b
	}

	switch name {
	case ClaimExpiresAt, ClaimNotBefore, ClaimIssuedAt:
		if t, ok := value.(time.Time); ok {
			value = t.Unix()
		}
	case ClaimAudience:
		switch aud := value.(type) {
		case string:
			value = []string{aud}
		case []string:
			value = append([]string(nil), aud...)
		case []any:
			if list, ok := stringList(aud); ok {
				value = list
			}
		}
	}

	b.claims.set(name, value)
	return b
}

// WithHeader sets a header. The "alg" header is always overwritten on Sign.
func (b *Builder) WithHeader(name string, value any) *Builder {
	if name == "" {
		b.fail(ErrInvalidClaimName)
		return b
	}
	b.headers.set(name, value)
	return b
}

// IssuedBy sets the "iss" claim.
func (b *Builder) IssuedBy(issuer string) *Builder {
	return b.WithClaim(ClaimIssuer, issuer)
}

// RelatedTo sets the "sub" claim.
func (b *Builder) RelatedTo(subject string) *Builder {
	return b.WithClaim(ClaimSubject, subject)
}

// IdentifiedBy sets the "jti" claim.
func (b *Builder) IdentifiedBy(id string) *Builder {
	return b.WithClaim(ClaimID, id)
}

// PermittedFor appends audiences, skipping ones already present.
func (b *Builder) PermittedFor(audiences ...string) *Builder {
	current, _ := b.claims.get(ClaimAudience)
	list, _ := current.([]string)
	for _, aud := range audiences {
		if !containsString(list, aud) {
			list = append(list, aud)
		}
	}
	b.claims.set(ClaimAudience, list)
	return b
}

// IssuedAt sets the "iat" claim.
func (b *Builder) IssuedAt(t time.Time) *Builder {
	return b.WithClaim(ClaimIssuedAt, t)
}

// CanOnlyBeUsedAfter sets the "nbf" claim.
func (b *Builder) CanOnlyBeUsedAfter(t time.Time) *Builder {
	return b.WithClaim(ClaimNotBefore, t)
}

// ExpiresAt sets the "exp" claim.
func (b *Builder) ExpiresAt(t time.Time) *Builder {
	return b.WithClaim(ClaimExpiresAt, t)
}

// Claim returns the value set for name so far.
func (b *Builder) Claim(name string) (any, bool) {
	return b.claims.get(name)
}

// Header returns the header value set for name so far.
func (b *Builder) Header(name string) (any, bool) {
	return b.headers.get(name)
}

// Sign finalizes the builder into a compact serialized token.
func (b *Builder) Sign(alg Algorithm) (string, error) {
	if b.signed {
		return "", ErrBuilderConsumed
	}
	b.signed = true

	if b.err != nil {
		return "", b.err
	}
	if alg == nil || !CanSign(alg) {
		return "", ErrInvalidKeyType
	}

	b.headers.set(HeaderAlgorithm, alg.Name())
	if aud, ok := b.claims.get(ClaimAudience); ok {
		if list, ok := aud.([]string); ok && len(list) == 1 {
			b.claims.set(ClaimAudience, list[0])
		}
	}

	headerJSON, err := b.headers.marshal()
	if err != nil {
		return "", fmt.Errorf("header: %w", err)
	}
	claimsJSON, err := b.claims.marshal()
	if err != nil {
		return "", fmt.Errorf("claims: %w", err)
	}

	headerB64 := encodeSegment(headerJSON)
	claimsB64 := encodeSegment(claimsJSON)

	var sb strings.Builder
	sb.Grow(len(headerB64) + 1 + len(claimsB64) + 1 + 88)

	sb.WriteString(headerB64)
	sb.WriteByte('.')
	sb.WriteString(claimsB64)

	payload := sb.String()
	signature, err := alg.Sign([]byte(payload))
	if err != nil {
		return "", err
	}

	sb.WriteByte('.')
	sb.WriteString(encodeSegment(signature))

	return sb.String(), nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func stringList(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
