// Package config loads token configurations and types from YAML and builds
// the registries a jwt.Manager runs on.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// File is the top-level configuration document.
type File struct {
	Default        string              `yaml:"default" validate:"required"`
	Configurations []ConfigurationSpec `yaml:"configurations" validate:"required,min=1,dive"`
	Types          []TypeSpec          `yaml:"types" validate:"dive"`

	// basePath resolves relative key file paths.
	basePath string
}

// ConfigurationSpec describes one signing configuration.
type ConfigurationSpec struct {
	Name      string `yaml:"name" validate:"required"`
	Algorithm string `yaml:"algorithm" default:"HS256" validate:"oneof=HS256 HS384 HS512 RS256 RS384 RS512 ES256 ES384 ES512 EdDSA"`
	KeyFormat string `yaml:"key_format" default:"pem" validate:"oneof=pem jwk"`

	Secret         string `yaml:"secret" secret:"true"`
	SecretFile     string `yaml:"secret_file"`
	PrivateKey     string `yaml:"private_key" secret:"true"`
	PrivateKeyFile string `yaml:"private_key_file"`
	PublicKey      string `yaml:"public_key"`
	PublicKeyFile  string `yaml:"public_key_file"`

	KeyID    string   `yaml:"key_id"`
	Issuer   string   `yaml:"issuer"`
	Audience []string `yaml:"audience"`
}

// TypeSpec describes one token type.
type TypeSpec struct {
	Name          string        `yaml:"name" validate:"required"`
	Configuration string        `yaml:"configuration"`
	TTL           time.Duration `yaml:"ttl" default:"15m" validate:"gte=0"`
	NotBefore     time.Duration `yaml:"not_before" validate:"gte=0"`
	Leeway        time.Duration `yaml:"leeway" validate:"gte=0"`

	Issuer   string   `yaml:"issuer"`
	Audience []string `yaml:"audience"`

	Claims         map[string]any `yaml:"claims"`
	Headers        map[string]any `yaml:"headers"`
	RequiredClaims []string       `yaml:"required_claims"`

	TokenID        bool `yaml:"token_id"`
	Strict         bool `yaml:"strict"`
	SkipValidation bool `yaml:"skip_validation"`
}

// ApplyDefaults fills zero-valued fields from their default tags.
func (f *File) ApplyDefaults() error {
	for i := range f.Configurations {
		if err := defaults.Set(&f.Configurations[i]); err != nil {
			return fmt.Errorf("configuration %d defaults: %w", i, err)
		}
	}
	for i := range f.Types {
		if err := defaults.Set(&f.Types[i]); err != nil {
			return fmt.Errorf("type %d defaults: %w", i, err)
		}
	}
	return nil
}

// Validate checks struct tags, name uniqueness and cross references.
func (f *File) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return err
	}

	configs := make(map[string]bool, len(f.Configurations))
	for _, c := range f.Configurations {
		if configs[c.Name] {
			return fmt.Errorf("configuration %q defined twice", c.Name)
		}
		configs[c.Name] = true

		if err := c.validateKeySource(); err != nil {
			return fmt.Errorf("configuration %q: %w", c.Name, err)
		}
	}
	if !configs[f.Default] {
		return fmt.Errorf("default configuration %q is not defined", f.Default)
	}

	types := make(map[string]bool, len(f.Types))
	for _, t := range f.Types {
		if types[t.Name] {
			return fmt.Errorf("type %q defined twice", t.Name)
		}
		types[t.Name] = true

		if t.Configuration != "" && !configs[t.Configuration] {
			return fmt.Errorf("type %q references undefined configuration %q", t.Name, t.Configuration)
		}
	}
	return nil
}

func (c ConfigurationSpec) validateKeySource() error {
	if isHMAC(c.Algorithm) {
		if c.KeyFormat == "jwk" {
			if c.PrivateKey == "" && c.PrivateKeyFile == "" {
				return fmt.Errorf("%s with key_format jwk requires private_key or private_key_file", c.Algorithm)
			}
			return nil
		}
		if c.Secret == "" && c.SecretFile == "" {
			return fmt.Errorf("%s requires secret or secret_file", c.Algorithm)
		}
		return nil
	}

	hasPrivate := c.PrivateKey != "" || c.PrivateKeyFile != ""
	hasPublic := c.PublicKey != "" || c.PublicKeyFile != ""
	if !hasPrivate && !hasPublic {
		return fmt.Errorf("%s requires a private or public key", c.Algorithm)
	}
	return nil
}

// String returns the spec with secret fields redacted.
func (c ConfigurationSpec) String() string {
	v := reflect.ValueOf(c)
	t := v.Type()

	var sb strings.Builder
	sb.WriteString("ConfigurationSpec{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).Interface()
		if field.Tag.Get("secret") == "true" && !v.Field(i).IsZero() {
			value = "***REDACTED***"
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name + ": " + fmt.Sprintf("%v", value))
	}
	sb.WriteString("}")
	return sb.String()
}

func isHMAC(alg string) bool {
	return strings.HasPrefix(alg, "HS")
}
