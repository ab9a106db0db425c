package jwt

import (
	"fmt"
	"math"
	"time"
)

// Token is a decoded, immutable JWT. Accessors return copies so callers
// cannot alter what constraints see.
type Token struct {
	raw       string
	payload   string
	headers   map[string]any
	claims    map[string]any
	signature []byte
}

// String returns the serialized token.
func (t *Token) String() string {
	return t.raw
}

// Payload returns the signing input (header.claims).
func (t *Token) Payload() string {
	return t.payload
}

// Signature returns the decoded signature bytes.
func (t *Token) Signature() []byte {
	return append([]byte(nil), t.signature...)
}

// Headers returns a copy of the decoded header set.
func (t *Token) Headers() map[string]any {
	return copyMap(t.headers)
}

// Claims returns a copy of the decoded claim set.
func (t *Token) Claims() map[string]any {
	return copyMap(t.claims)
}

// Header returns a single header value.
func (t *Token) Header(name string) (any, bool) {
	v, ok := t.headers[name]
	return v, ok
}

// Claim returns a single claim value.
func (t *Token) Claim(name string) (any, bool) {
	v, ok := t.claims[name]
	return v, ok
}

// HasClaim reports whether the claim is present.
func (t *Token) HasClaim(name string) bool {
	_, ok := t.claims[name]
	return ok
}

// Algorithm returns the "alg" header.
func (t *Token) Algorithm() string {
	return t.stringHeader(HeaderAlgorithm)
}

// KeyID returns the "kid" header.
func (t *Token) KeyID() string {
	return t.stringHeader(HeaderKeyID)
}

// Issuer returns the "iss" claim.
func (t *Token) Issuer() string {
	return t.stringClaim(ClaimIssuer)
}

// Subject returns the "sub" claim.
func (t *Token) Subject() string {
	return t.stringClaim(ClaimSubject)
}

// ID returns the "jti" claim.
func (t *Token) ID() string {
	return t.stringClaim(ClaimID)
}

// Audience returns the "aud" claim, which may be encoded as a string or an array.
func (t *Token) Audience() []string {
	switch aud := t.claims[ClaimAudience].(type) {
	case string:
		return []string{aud}
	case []any:
		out := make([]string, 0, len(aud))
		for _, v := range aud {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ExpiresAt returns the "exp" claim. A malformed value reports false.
func (t *Token) ExpiresAt() (time.Time, bool) {
	exp, ok, err := t.timeClaim(ClaimExpiresAt)
	return exp, ok && err == nil
}

// NotBefore returns the "nbf" claim. A malformed value reports false.
func (t *Token) NotBefore() (time.Time, bool) {
	nbf, ok, err := t.timeClaim(ClaimNotBefore)
	return nbf, ok && err == nil
}

// IssuedAt returns the "iat" claim. A malformed value reports false.
func (t *Token) IssuedAt() (time.Time, bool) {
	iat, ok, err := t.timeClaim(ClaimIssuedAt)
	return iat, ok && err == nil
}

// IsExpired reports whether exp is present and not after now.
// A malformed exp counts as expired.
func (t *Token) IsExpired(now time.Time) bool {
	exp, ok, err := t.timeClaim(ClaimExpiresAt)
	if err != nil {
		return true
	}
	return ok && !now.Before(exp)
}

// IsPermittedFor reports whether audience is listed in "aud".
func (t *Token) IsPermittedFor(audience string) bool {
	return containsString(t.Audience(), audience)
}

// HasBeenIssuedBy reports whether "iss" equals one of issuers.
func (t *Token) HasBeenIssuedBy(issuers ...string) bool {
	return containsString(issuers, t.Issuer())
}

func (t *Token) stringHeader(name string) string {
	s, _ := t.headers[name].(string)
	return s
}

func (t *Token) stringClaim(name string) string {
	s, _ := t.claims[name].(string)
	return s
}

// timeClaim decodes a NumericDate claim. ok is false when the claim is
// absent; err is set when it is present but not a number of seconds that
// fits in an int64.
func (t *Token) timeClaim(name string) (time.Time, bool, error) {
	raw, ok := t.claims[name]
	if !ok {
		return time.Time{}, false, nil
	}

	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt64 || v >= math.MaxInt64 {
			return time.Time{}, true, fmt.Errorf("%w: %s out of range", ErrTokenMalformed, name)
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)), true, nil
	case int64:
		return time.Unix(v, 0), true, nil
	default:
		return time.Time{}, true, fmt.Errorf("%w: %s must be a NumericDate, got %T", ErrTokenMalformed, name, raw)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
