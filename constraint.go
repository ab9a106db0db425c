package jwt

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Constraint is a single predicate asserted against a parsed token.
type Constraint interface {
	Assert(token *Token) error
}

// ConstraintFunc adapts a function into a Constraint.
type ConstraintFunc func(token *Token) error

// Assert satisfies the Constraint interface.
func (f ConstraintFunc) Assert(token *Token) error {
	return f(token)
}

func constraintName(c Constraint) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	if c == nil {
		return "validator"
	}
	return reflect.TypeOf(c).String()
}

type signedWith struct {
	alg Algorithm
}

// SignedWith checks the "alg" header and verifies the signature with alg.
func SignedWith(alg Algorithm) Constraint {
	return signedWith{alg: alg}
}

func (c signedWith) Assert(token *Token) error {
	if c.alg == nil {
		return ErrInvalidKeyType
	}
	if token.Algorithm() != c.alg.Name() {
		return fmt.Errorf("%w: got %q, want %q", ErrUnexpectedAlgorithm, token.Algorithm(), c.alg.Name())
	}
	if err := c.alg.Verify([]byte(token.payload), token.signature); err != nil {
		return ErrTokenInvalidSignature
	}
	return nil
}

func (c signedWith) String() string {
	if c.alg == nil {
		return "SignedWith(<nil>)"
	}
	return "SignedWith(" + c.alg.Name() + ")"
}

type issuedBy struct {
	issuers []string
}

// IssuedBy requires "iss" to equal one of issuers.
func IssuedBy(issuers ...string) Constraint {
	return issuedBy{issuers: issuers}
}

func (c issuedBy) Assert(token *Token) error {
	if !token.HasBeenIssuedBy(c.issuers...) {
		return fmt.Errorf("%w: %q", ErrTokenInvalidIssuer, token.Issuer())
	}
	return nil
}

func (c issuedBy) String() string {
	return "IssuedBy(" + strings.Join(c.issuers, ",") + ")"
}

type permittedFor struct {
	audience string
}

// PermittedFor requires audience to be listed in "aud".
func PermittedFor(audience string) Constraint {
	return permittedFor{audience: audience}
}

func (c permittedFor) Assert(token *Token) error {
	if !token.IsPermittedFor(c.audience) {
		return fmt.Errorf("%w: %q not in %v", ErrTokenInvalidAudience, c.audience, token.Audience())
	}
	return nil
}

func (c permittedFor) String() string {
	return "PermittedFor(" + c.audience + ")"
}

type relatedTo struct {
	subject string
}

// RelatedTo requires "sub" to equal subject.
func RelatedTo(subject string) Constraint {
	return relatedTo{subject: subject}
}

func (c relatedTo) Assert(token *Token) error {
	if token.Subject() != c.subject {
		return fmt.Errorf("%w: %q", ErrTokenInvalidSubject, token.Subject())
	}
	return nil
}

func (c relatedTo) String() string {
	return "RelatedTo(" + c.subject + ")"
}

type identifiedBy struct {
	id string
}

// IdentifiedBy requires "jti" to equal id.
func IdentifiedBy(id string) Constraint {
	return identifiedBy{id: id}
}

func (c identifiedBy) Assert(token *Token) error {
	if token.ID() != c.id {
		return fmt.Errorf("%w: %q", ErrTokenInvalidID, token.ID())
	}
	return nil
}

func (c identifiedBy) String() string {
	return "IdentifiedBy(" + c.id + ")"
}

type hasClaim struct {
	name string
}

// HasClaim requires the claim to be present.
func HasClaim(name string) Constraint {
	return hasClaim{name: name}
}

func (c hasClaim) Assert(token *Token) error {
	if !token.HasClaim(c.name) {
		return fmt.Errorf("%w: %s", ErrTokenMissingClaim, c.name)
	}
	return nil
}

func (c hasClaim) String() string {
	return "HasClaim(" + c.name + ")"
}

type validAt struct {
	clock  Clock
	leeway time.Duration
	strict bool
}

// LooseValidAt checks exp, nbf and iat when present, tolerating leeway.
func LooseValidAt(clock Clock, leeway time.Duration) Constraint {
	return validAt{clock: clockOrSystem(clock), leeway: absDuration(leeway)}
}

// StrictValidAt is LooseValidAt but also requires exp, nbf and iat.
func StrictValidAt(clock Clock, leeway time.Duration) Constraint {
	return validAt{clock: clockOrSystem(clock), leeway: absDuration(leeway), strict: true}
}

func (c validAt) Assert(token *Token) error {
	now := clockOrSystem(c.clock).Now()

	if c.strict {
		for _, name := range []string{ClaimIssuedAt, ClaimNotBefore, ClaimExpiresAt} {
			if !token.HasClaim(name) {
				return fmt.Errorf("%w: %s", ErrTokenMissingClaim, name)
			}
		}
	}

	times := make(map[string]time.Time, 3)
	for _, name := range []string{ClaimIssuedAt, ClaimNotBefore, ClaimExpiresAt} {
		ts, ok, err := token.timeClaim(name)
		if err != nil {
			return err
		}
		if ok {
			times[name] = ts
		}
	}

	if iat, ok := times[ClaimIssuedAt]; ok && iat.After(now.Add(c.leeway)) {
		return ErrTokenIssuedInFuture
	}
	if nbf, ok := times[ClaimNotBefore]; ok && nbf.After(now.Add(c.leeway)) {
		return ErrTokenNotYetValid
	}
	if exp, ok := times[ClaimExpiresAt]; ok && !now.Add(-c.leeway).Before(exp) {
		return ErrTokenExpired
	}
	return nil
}

func (c validAt) String() string {
	if c.strict {
		return "StrictValidAt"
	}
	return "LooseValidAt"
}

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
