package config

import (
	"fmt"
	"sort"

	jwt "github.com/krajcik/go-jwt-registry"
)

// Build creates and fills both registries. typeOpts are applied to every
// type after its own options (e.g. jwt.WithClock in tests).
func (f *File) Build(typeOpts ...jwt.TypeOption) (*jwt.ConfigRegistry, *jwt.TypeRegistry, error) {
	configs := jwt.NewConfigRegistry()
	for _, spec := range f.Configurations {
		cfg, err := f.NewConfiguration(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("configuration %q: %w", spec.Name, err)
		}
		if err := configs.Register(cfg); err != nil {
			return nil, nil, err
		}
	}
	if err := configs.SetDefault(f.Default); err != nil {
		return nil, nil, err
	}

	types := jwt.NewTypeRegistry()
	for _, spec := range f.Types {
		opts := append(spec.Options(), typeOpts...)
		if err := types.Register(spec.Name, jwt.NewType(opts...)); err != nil {
			return nil, nil, err
		}
	}

	return configs, types, nil
}

// NewConfiguration loads spec's keys and builds the registry entry.
func (f *File) NewConfiguration(spec ConfigurationSpec) (*jwt.Configuration, error) {
	signer, verifier, err := f.NewAlgorithm(spec)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ConfigurationOption{jwt.WithVerificationKey(verifier)}
	if spec.KeyID != "" {
		opts = append(opts, jwt.WithKeyID(spec.KeyID))
	}
	if spec.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(spec.Issuer))
	}
	if len(spec.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(spec.Audience...))
	}

	return jwt.NewConfiguration(spec.Name, signer, opts...)
}

// Options translates the spec into StandardType options. Fixed claims and
// headers are applied in sorted key order.
func (t TypeSpec) Options() []jwt.TypeOption {
	opts := []jwt.TypeOption{
		jwt.WithConfigurationName(t.Configuration),
		jwt.WithTTL(t.TTL),
		jwt.WithNotBefore(t.NotBefore),
		jwt.WithLeeway(t.Leeway),
	}

	if t.Issuer != "" {
		opts = append(opts, jwt.WithTypeIssuer(t.Issuer))
	}
	if len(t.Audience) > 0 {
		opts = append(opts, jwt.WithTypeAudience(t.Audience...))
	}
	for _, name := range sortedKeys(t.Headers) {
		opts = append(opts, jwt.WithFixedHeader(name, t.Headers[name]))
	}
	for _, name := range sortedKeys(t.Claims) {
		opts = append(opts, jwt.WithFixedClaim(name, t.Claims[name]))
	}
	if len(t.RequiredClaims) > 0 {
		opts = append(opts, jwt.WithRequiredClaims(t.RequiredClaims...))
	}
	if t.TokenID {
		opts = append(opts, jwt.WithTokenID())
	}
	if t.Strict {
		opts = append(opts, jwt.WithStrictTime())
	}
	if t.SkipValidation {
		opts = append(opts, jwt.WithoutValidation())
	}
	return opts
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
