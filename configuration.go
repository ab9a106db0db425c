package jwt

import "errors"

// Configuration is a named, immutable bundle of signer, verification key,
// builder factory, parser and validator.
type Configuration struct {
	name           string
	signer         Algorithm
	verifier       Algorithm
	builderFactory func() *Builder
	parser         Parser
	validator      Validator
	keyID          string
	issuer         string
	audience       []string
}

// ConfigurationOption customizes a Configuration at construction time.
type ConfigurationOption func(*Configuration)

// WithVerificationKey sets the algorithm used to verify signatures.
// It defaults to the signer, which is what symmetric algorithms need.
func WithVerificationKey(alg Algorithm) ConfigurationOption {
	return func(c *Configuration) {
		c.verifier = alg
	}
}

// WithBuilderFactory replaces NewBuilder as the builder source.
func WithBuilderFactory(factory func() *Builder) ConfigurationOption {
	return func(c *Configuration) {
		c.builderFactory = factory
	}
}

// WithParser replaces the default parser.
func WithParser(p Parser) ConfigurationOption {
	return func(c *Configuration) {
		c.parser = p
	}
}

// WithValidator replaces the default validator.
func WithValidator(v Validator) ConfigurationOption {
	return func(c *Configuration) {
		c.validator = v
	}
}

// WithKeyID stamps a "kid" header on every builder this configuration creates.
func WithKeyID(kid string) ConfigurationOption {
	return func(c *Configuration) {
		c.keyID = kid
	}
}

// WithIssuer records the issuer identity of this configuration.
func WithIssuer(issuer string) ConfigurationOption {
	return func(c *Configuration) {
		c.issuer = issuer
	}
}

// WithAudience records the audience identity of this configuration.
func WithAudience(audience ...string) ConfigurationOption {
	return func(c *Configuration) {
		c.audience = append([]string(nil), audience...)
	}
}

// NewConfiguration builds a Configuration. signer may be verification-only
// for configurations that only parse tokens.
func NewConfiguration(name string, signer Algorithm, opts ...ConfigurationOption) (*Configuration, error) {
	if name == "" {
		return nil, errors.New("configuration name cannot be empty")
	}
	if signer == nil {
		return nil, errors.New("signer cannot be nil")
	}

	c := &Configuration{
		name:           name,
		signer:         signer,
		builderFactory: NewBuilder,
		parser:         NewParser(),
		validator:      NewValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.verifier == nil {
		c.verifier = signer
	}
	if err := c.check(); err != nil {
		return nil, err
	}

	return c, nil
}

// check rejects entries that were not built by NewConfiguration or lost a
// collaborator to a nil option.
func (c *Configuration) check() error {
	switch {
	case c == nil:
		return errors.New("configuration cannot be nil")
	case c.name == "":
		return errors.New("configuration name cannot be empty")
	case c.signer == nil || c.verifier == nil:
		return errors.New("signer and verification key are required")
	case c.verifier.Name() != c.signer.Name():
		return errors.New("verification key algorithm does not match signer")
	case c.builderFactory == nil || c.parser == nil || c.validator == nil:
		return errors.New("builder factory, parser and validator are required")
	}
	return nil
}

// Name returns the registry name.
func (c *Configuration) Name() string {
	return c.name
}

// Signer returns the signing algorithm and key.
func (c *Configuration) Signer() Algorithm {
	return c.signer
}

// VerificationKey returns the algorithm and key used to verify signatures.
func (c *Configuration) VerificationKey() Algorithm {
	return c.verifier
}

// CreateBuilder returns a fresh builder carrying the configuration's kid,
// issuer and audience, if set.
func (c *Configuration) CreateBuilder() *Builder {
	b := c.builderFactory()
	if c.keyID != "" {
		b.WithHeader(HeaderKeyID, c.keyID)
	}
	if c.issuer != "" {
		b.IssuedBy(c.issuer)
	}
	if len(c.audience) > 0 {
		b.PermittedFor(c.audience...)
	}
	return b
}

// Parser returns the configured parser.
func (c *Configuration) Parser() Parser {
	return c.parser
}

// Validator returns the configured validator.
func (c *Configuration) Validator() Validator {
	return c.validator
}

// KeyID returns the "kid" stamped on created tokens, if any.
func (c *Configuration) KeyID() string {
	return c.keyID
}

// Issuer returns the configured issuer identity.
func (c *Configuration) Issuer() string {
	return c.issuer
}

// Audience returns a copy of the configured audience identity.
func (c *Configuration) Audience() []string {
	return append([]string(nil), c.audience...)
}
