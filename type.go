package jwt

import (
	"time"

	"github.com/google/uuid"
)

// Type is the policy for one logical kind of token.
type Type interface {
	// ConfigurationName names the configuration to use; "" selects the default.
	ConfigurationName() string
	// ConfigureBuilder runs after caller claims and headers are applied.
	ConfigureBuilder(b *Builder)
	// Constraints returns the constraints for tokens parsed with cfg.
	// A nil or empty result skips validation.
	Constraints(cfg *Configuration) []Constraint
}

// StandardType covers the common case: fixed lifetime, issuer and audience,
// optional token id and fixed claims.
type StandardType struct {
	configuration  string
	ttl            time.Duration
	notBefore      time.Duration
	leeway         time.Duration
	issuer         string
	audience       []string
	claims         *dataSet
	headers        *dataSet
	requiredClaims []string
	tokenID        bool
	skipValidation bool
	strict         bool
	clock          Clock
	newID          func() string
}

// TypeOption customizes a StandardType.
type TypeOption func(*StandardType)

// WithConfigurationName routes the type to a named configuration.
func WithConfigurationName(name string) TypeOption {
	return func(t *StandardType) {
		t.configuration = name
	}
}

// WithTTL sets iat and exp = iat + ttl on created tokens.
func WithTTL(ttl time.Duration) TypeOption {
	return func(t *StandardType) {
		t.ttl = ttl
	}
}

// WithNotBefore sets nbf = iat + delay on created tokens.
func WithNotBefore(delay time.Duration) TypeOption {
	return func(t *StandardType) {
		t.notBefore = delay
	}
}

// WithLeeway sets the clock skew tolerated when validating times.
func WithLeeway(leeway time.Duration) TypeOption {
	return func(t *StandardType) {
		t.leeway = leeway
	}
}

// WithTypeIssuer overrides the configuration issuer for this type.
func WithTypeIssuer(issuer string) TypeOption {
	return func(t *StandardType) {
		t.issuer = issuer
	}
}

// WithTypeAudience overrides the configuration audience for this type.
func WithTypeAudience(audience ...string) TypeOption {
	return func(t *StandardType) {
		t.audience = append([]string(nil), audience...)
	}
}

// WithFixedClaim sets a claim that callers cannot override.
func WithFixedClaim(name string, value any) TypeOption {
	return func(t *StandardType) {
		t.claims.set(name, value)
	}
}

// WithFixedHeader sets a header that callers cannot override.
func WithFixedHeader(name string, value any) TypeOption {
	return func(t *StandardType) {
		t.headers.set(name, value)
	}
}

// WithRequiredClaims makes parsing fail when any of names is missing.
func WithRequiredClaims(names ...string) TypeOption {
	return func(t *StandardType) {
		t.requiredClaims = append(t.requiredClaims, names...)
	}
}

// WithTokenID stamps a random UUID "jti" on created tokens.
func WithTokenID() TypeOption {
	return func(t *StandardType) {
		t.tokenID = true
	}
}

// WithoutValidation makes Parse return tokens without asserting anything.
func WithoutValidation() TypeOption {
	return func(t *StandardType) {
		t.skipValidation = true
	}
}

// WithStrictTime requires iat, nbf and exp to be present.
func WithStrictTime() TypeOption {
	return func(t *StandardType) {
		t.strict = true
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) TypeOption {
	return func(t *StandardType) {
		t.clock = clock
	}
}

// NewType builds a StandardType.
func NewType(opts ...TypeOption) *StandardType {
	t := &StandardType{
		claims:  newDataSet(),
		headers: newDataSet(),
		clock:   SystemClock{},
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.clock == nil {
		t.clock = SystemClock{}
	}
	return t
}

// ConfigurationName satisfies Type.
func (t *StandardType) ConfigurationName() string {
	return t.configuration
}

// ConfigureBuilder satisfies Type. A zero StandardType is usable and
// behaves like NewType().
func (t *StandardType) ConfigureBuilder(b *Builder) {
	if t.headers != nil {
		for _, name := range t.headers.keys {
			b.WithHeader(name, t.headers.values[name])
		}
	}
	if t.claims != nil {
		for _, name := range t.claims.keys {
			b.WithClaim(name, t.claims.values[name])
		}
	}

	if t.issuer != "" {
		b.IssuedBy(t.issuer)
	}
	if len(t.audience) > 0 {
		b.PermittedFor(t.audience...)
	}
	if t.tokenID {
		if t.newID != nil {
			b.IdentifiedBy(t.newID())
		} else {
			b.IdentifiedBy(uuid.NewString())
		}
	}

	if t.ttl > 0 {
		now := clockOrSystem(t.clock).Now()
		b.IssuedAt(now).
			CanOnlyBeUsedAfter(now.Add(t.notBefore)).
			ExpiresAt(now.Add(t.ttl))
	}
}

// Constraints satisfies Type. Issuer and audience fall back to the
// configuration identity when the type does not set them.
func (t *StandardType) Constraints(cfg *Configuration) []Constraint {
	if t.skipValidation {
		return nil
	}

	constraints := []Constraint{SignedWith(cfg.VerificationKey())}
	if t.strict {
		constraints = append(constraints, StrictValidAt(t.clock, t.leeway))
	} else {
		constraints = append(constraints, LooseValidAt(t.clock, t.leeway))
	}

	issuer := t.issuer
	if issuer == "" {
		issuer = cfg.Issuer()
	}
	if issuer != "" {
		constraints = append(constraints, IssuedBy(issuer))
	}

	audience := t.audience
	if len(audience) == 0 {
		audience = cfg.Audience()
	}
	for _, aud := range audience {
		constraints = append(constraints, PermittedFor(aud))
	}

	for _, name := range t.requiredClaims {
		constraints = append(constraints, HasClaim(name))
	}
	return constraints
}
