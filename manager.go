package jwt

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Manager creates and parses tokens by type name.
//
// A Manager holds no per-call state; it is safe for concurrent use as long
// as the registries are.
type Manager struct {
	configs *ConfigRegistry
	types   *TypeRegistry
	logger  *zap.Logger
	metrics *Metrics
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. Tokens and key material are never logged.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a Manager over the given registries.
func NewManager(configs *ConfigRegistry, types *TypeRegistry, opts ...ManagerOption) (*Manager, error) {
	if configs == nil {
		return nil, errors.New("configuration registry is required")
	}
	if types == nil {
		return nil, errors.New("type registry is required")
	}

	m := &Manager{
		configs: configs,
		types:   types,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return m, nil
}

// ConfigurationFor resolves the configuration a type uses: its named
// configuration when it declares one, the default otherwise. A declared
// but unregistered name is an error, not a fallback.
func (m *Manager) ConfigurationFor(t Type) (*Configuration, error) {
	if name := t.ConfigurationName(); name != "" {
		return m.configs.Configuration(name)
	}
	return m.configs.Default()
}

// Resolve looks up a type and its configuration.
func (m *Manager) Resolve(typeName string) (Type, *Configuration, error) {
	t, err := m.types.TypeByName(typeName)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := m.ConfigurationFor(t)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Debug("resolved token type",
		zap.String("type", typeName),
		zap.String("configuration", cfg.Name()),
	)
	return t, cfg, nil
}

// Create builds and signs a token of the given type. Caller claims are
// applied first, then headers, each in sorted key order; the type's own
// builder mutations run last and win.
//
// Only values set by the type are caller-proof. The configuration's kid,
// iss and aud are stamped before caller input and can be replaced by it.
func (m *Manager) Create(typeName string, claims, headers map[string]any) (string, error) {
	start := time.Now()

	t, cfg, err := m.Resolve(typeName)
	if err != nil {
		m.recordCreate(metricTypeLabel(typeName, err), "", StatusResolutionError, start)
		m.logger.Warn("token type resolution failed", zap.String("type", typeName), zap.Error(err))
		return "", err
	}

	builder := cfg.CreateBuilder()
	for _, name := range sortedKeys(claims) {
		builder.WithClaim(name, claims[name])
	}
	for _, name := range sortedKeys(headers) {
		builder.WithHeader(name, headers[name])
	}
	t.ConfigureBuilder(builder)

	token, err := builder.Sign(cfg.Signer())
	if err != nil {
		m.recordCreate(typeName, cfg.Name(), StatusCreationError, start)
		m.logger.Warn("token creation failed",
			zap.String("type", typeName),
			zap.String("configuration", cfg.Name()),
			zap.Error(err),
		)
		return "", &CreationError{Type: typeName, Configuration: cfg.Name(), Cause: err}
	}

	m.recordCreate(typeName, cfg.Name(), StatusSuccess, start)
	return token, nil
}

// Parse decodes raw with the type's configuration and asserts the type's
// constraints. Types that return no constraints get the token unvalidated.
func (m *Manager) Parse(raw, typeName string) (*Token, error) {
	start := time.Now()

	t, cfg, err := m.Resolve(typeName)
	if err != nil {
		m.recordParse(metricTypeLabel(typeName, err), "", StatusResolutionError, start)
		m.logger.Warn("token type resolution failed", zap.String("type", typeName), zap.Error(err))
		return nil, err
	}

	token, err := cfg.Parser().Parse(raw)
	if err != nil {
		m.recordParse(typeName, cfg.Name(), StatusParseError, start)
		m.logger.Warn("token parse failed",
			zap.String("type", typeName),
			zap.String("configuration", cfg.Name()),
			zap.Error(err),
		)
		return nil, &ParseError{Type: typeName, Configuration: cfg.Name(), Cause: err}
	}

	constraints := t.Constraints(cfg)
	if len(constraints) == 0 {
		m.recordParse(typeName, cfg.Name(), StatusUnvalidated, start)
		m.logger.Debug("token validation skipped", zap.String("type", typeName))
		return token, nil
	}

	if err := cfg.Validator().Assert(token, constraints...); err != nil {
		verr := asValidationError(err)
		verr.Type = typeName
		verr.Configuration = cfg.Name()

		m.recordParse(typeName, cfg.Name(), StatusValidationError, start)
		m.logger.Warn("token validation failed",
			zap.String("type", typeName),
			zap.String("configuration", cfg.Name()),
			zap.Error(verr),
		)
		return nil, verr
	}

	m.recordParse(typeName, cfg.Name(), StatusSuccess, start)
	return token, nil
}

// TypeNames lists registered types.
func (m *Manager) TypeNames() []string {
	return m.types.Names()
}

// asValidationError copies a validator's *ValidationError, or wraps any
// other error as a single violation.
func asValidationError(err error) *ValidationError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Violations: append([]ConstraintViolation(nil), verr.Violations...)}
	}
	return &ValidationError{Violations: []ConstraintViolation{{Cause: err}}}
}

// unknownTypeLabel is the metric type label for unregistered type names.
const unknownTypeLabel = "unknown"

func metricTypeLabel(typeName string, err error) string {
	if errors.Is(err, ErrUnknownType) {
		return unknownTypeLabel
	}
	return typeName
}

func (m *Manager) recordCreate(typeName, configuration, status string, start time.Time) {
	if m.metrics != nil {
		m.metrics.RecordCreate(typeName, configuration, status, time.Since(start))
	}
}

func (m *Manager) recordParse(typeName, configuration, status string, start time.Time) {
	if m.metrics != nil {
		m.metrics.RecordParse(typeName, configuration, status, time.Since(start))
	}
}
