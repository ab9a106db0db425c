package jwt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// staticType is a minimal Type without any StandardType behavior.
type staticType struct {
	configuration string
	claims        map[string]any
	constraints   []Constraint
}

func (s staticType) ConfigurationName() string { return s.configuration }

func (s staticType) ConfigureBuilder(b *Builder) {
	for _, name := range sortedKeys(s.claims) {
		b.WithClaim(name, s.claims[name])
	}
}

func (s staticType) Constraints(*Configuration) []Constraint { return s.constraints }

type managerFixture struct {
	configs *ConfigRegistry
	types   *TypeRegistry
	c1      *Configuration
	c2      *Configuration
	clock   *testClock
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	f := &managerFixture{
		configs: NewConfigRegistry(),
		types:   NewTypeRegistry(),
		c1:      newTestConfiguration(t, "C1", "k1"),
		c2:      newTestConfiguration(t, "invite", "k2"),
		clock:   &testClock{now: time.Unix(1700000000, 0)},
	}

	f.configs.MustRegister(f.c1)
	f.configs.MustRegister(f.c2)
	require.NoError(t, f.configs.SetDefault("C1"))

	f.types.MustRegister("access", NewType(WithTTL(time.Hour), WithClock(f.clock)))
	f.types.MustRegister("invite", NewType(WithConfigurationName("invite"), WithTTL(24*time.Hour), WithClock(f.clock)))
	return f
}

func (f *managerFixture) manager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()

	m, err := NewManager(f.configs, f.types, opts...)
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresRegistries(t *testing.T) {
	_, err := NewManager(nil, NewTypeRegistry())
	assert.Error(t, err)

	_, err = NewManager(NewConfigRegistry(), nil)
	assert.Error(t, err)
}

func TestManagerConfigurationResolution(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	t.Run("named configuration wins over default", func(t *testing.T) {
		typ, cfg, err := m.Resolve("invite")
		require.NoError(t, err)
		assert.Same(t, f.c2, cfg)
		assert.Equal(t, "invite", typ.ConfigurationName())
	})

	t.Run("no name selects default", func(t *testing.T) {
		_, cfg, err := m.Resolve("access")
		require.NoError(t, err)
		assert.Same(t, f.c1, cfg)
	})

	t.Run("empty name selects default", func(t *testing.T) {
		cfg, err := m.ConfigurationFor(NewType(WithConfigurationName("")))
		require.NoError(t, err)
		assert.Same(t, f.c1, cfg)
	})

	t.Run("named but missing does not fall back", func(t *testing.T) {
		_, err := m.ConfigurationFor(NewType(WithConfigurationName("refresh")))
		assert.ErrorIs(t, err, ErrUnknownConfiguration)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, _, err := m.Resolve("missing")
		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("no default", func(t *testing.T) {
		configs := NewConfigRegistry()
		configs.MustRegister(newTestConfiguration(t, "C1", "k1"))
		types := NewTypeRegistry()
		types.MustRegister("access", NewType())

		m, err := NewManager(configs, types)
		require.NoError(t, err)

		_, err = m.Create("access", nil, nil)
		assert.ErrorIs(t, err, ErrNoDefaultConfiguration)
		assert.True(t, IsResolutionError(err))

		_, err = m.Parse("a.b.c", "access")
		assert.ErrorIs(t, err, ErrNoDefaultConfiguration)
	})
}

func TestManagerRoundTrip(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("session", NewType(
		WithTTL(time.Hour),
		WithClock(f.clock),
		WithFixedClaim("scope", "session"),
	))
	m := f.manager(t)

	claims := map[string]any{
		"sub":   "u1",
		"scope": "admin",
		"n":     42,
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"plan": "pro"},
	}
	headers := map[string]any{"kid": "header-kid"}

	raw, err := m.Create("session", claims, headers)
	require.NoError(t, err)

	token, err := m.Parse(raw, "session")
	require.NoError(t, err)

	for name, want := range claims {
		if name == "scope" {
			continue
		}
		got, ok := token.Claim(name)
		require.True(t, ok, name)
		assert.EqualValues(t, want, got, name)
	}

	scope, _ := token.Claim("scope")
	assert.Equal(t, "session", scope)
	assert.Equal(t, "header-kid", token.KeyID())

	again, err := m.Parse(raw, "session")
	require.NoError(t, err)
	assert.Equal(t, token.Claims(), again.Claims())
	assert.Equal(t, token.Headers(), again.Headers())
}

func TestManagerCreateIsDeterministic(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	claims := map[string]any{"sub": "u1", "a": 1, "z": 2, "m": 3}
	first, err := m.Create("access", claims, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		raw, err := m.Create("access", claims, nil)
		require.NoError(t, err)
		assert.Equal(t, first, raw)
	}
}

func TestManagerAccessScenario(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	raw, err := m.Create("access", map[string]any{"sub": "u1"}, nil)
	require.NoError(t, err)

	token, err := m.Parse(raw, "access")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.Subject())

	f.clock.Advance(2 * time.Hour)

	_, err = m.Parse(raw, "access")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.True(t, IsExpiredError(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "access", verr.Type)
	assert.Equal(t, "C1", verr.Configuration)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "LooseValidAt", constraintName(verr.Violations[0].Constraint))
}

func TestManagerInviteScenario(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	raw, err := m.Create("invite", map[string]any{}, nil)
	require.NoError(t, err)

	token, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.NoError(t, SignedWith(f.c2.VerificationKey()).Assert(token))
	assert.ErrorIs(t, SignedWith(f.c1.VerificationKey()).Assert(token), ErrTokenInvalidSignature)

	_, err = m.Parse(raw, "invite")
	require.NoError(t, err)

	t.Run("default-only manager does not fall back", func(t *testing.T) {
		configs := NewConfigRegistry()
		configs.MustRegister(newTestConfiguration(t, "C1", "k1"))
		require.NoError(t, configs.SetDefault("C1"))
		types := NewTypeRegistry()
		types.MustRegister("invite", NewType(WithConfigurationName("invite")))

		other, err := NewManager(configs, types)
		require.NoError(t, err)

		_, err = other.Parse(raw, "invite")
		var unknown *UnknownConfigurationError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "invite", unknown.Name)
	})

	t.Run("access type rejects invite token", func(t *testing.T) {
		_, err := m.Parse(raw, "access")
		assert.ErrorIs(t, err, ErrTokenInvalidSignature)
	})
}

func TestManagerValidationOptOut(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("audit", NewType(WithoutValidation()))
	f.types.MustRegister("empty", staticType{constraints: []Constraint{}})
	f.types.MustRegister("strict-issuer", NewType(WithTypeIssuer("auth")))
	m := f.manager(t)

	expired, err := NewBuilder().
		IssuedBy("someone-else").
		ExpiresAt(time.Unix(1000, 0)).
		Sign(NewHS256([]byte("unrelated")))
	require.NoError(t, err)

	for _, typeName := range []string{"audit", "empty"} {
		token, err := m.Parse(expired, typeName)
		require.NoError(t, err, typeName)
		assert.Equal(t, "someone-else", token.Issuer())
	}

	_, err = m.Parse(expired, "strict-issuer")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrTokenInvalidIssuer)
}

func TestManagerTypeClaimsOverrideCaller(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("admin", staticType{
		claims:      map[string]any{"role": "user", "sub": "fixed"},
		constraints: []Constraint{HasClaim("role")},
	})
	m := f.manager(t)

	raw, err := m.Create("admin", map[string]any{"role": "admin", "sub": "u1", "extra": true}, nil)
	require.NoError(t, err)

	token, err := m.Parse(raw, "admin")
	require.NoError(t, err)

	role, _ := token.Claim("role")
	assert.Equal(t, "user", role)
	assert.Equal(t, "fixed", token.Subject())
	extra, _ := token.Claim("extra")
	assert.Equal(t, true, extra)
}

func TestManagerErrors(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	t.Run("creation error", func(t *testing.T) {
		_, err := m.Create("access", map[string]any{"bad": make(chan int)}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTokenCreation)

		var cerr *CreationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "access", cerr.Type)
		assert.Equal(t, "C1", cerr.Configuration)
	})

	t.Run("empty claim name", func(t *testing.T) {
		_, err := m.Create("access", map[string]any{"": "x"}, nil)
		assert.ErrorIs(t, err, ErrInvalidClaimName)
		assert.ErrorIs(t, err, ErrTokenCreation)
	})

	t.Run("verification-only configuration", func(t *testing.T) {
		pub, _, err := GenerateEdDSAKey()
		require.NoError(t, err)
		cfg, err := NewConfiguration("public", NewEdDSAWithPublicKey(pub))
		require.NoError(t, err)
		f.configs.MustRegister(cfg)
		f.types.MustRegister("public", NewType(WithConfigurationName("public")))

		_, err = m.Create("public", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidKeyType)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := m.Parse("not-a-token", "access")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTokenMalformed)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "access", perr.Type)
		assert.False(t, IsValidationError(err))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := m.Create("missing", nil, nil)
		assert.ErrorIs(t, err, ErrUnknownType)

		_, err = m.Parse("a.b.c", "missing")
		assert.ErrorIs(t, err, ErrUnknownType)
	})
}

func TestManagerMetrics(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("audit", NewType(WithoutValidation()))
	metrics := NewMetrics("test")
	m := f.manager(t, WithMetrics(metrics))

	raw, err := m.Create("access", map[string]any{"sub": "u1"}, nil)
	require.NoError(t, err)
	_, err = m.Create("missing", nil, nil)
	require.Error(t, err)

	_, err = m.Parse(raw, "access")
	require.NoError(t, err)
	_, err = m.Parse(raw, "audit")
	require.NoError(t, err)
	_, err = m.Parse("garbage", "access")
	require.Error(t, err)
	_, err = m.Parse(raw, "invite")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.createdTotal.WithLabelValues("access", "C1", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.createdTotal.WithLabelValues(unknownTypeLabel, "", StatusResolutionError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.parsedTotal.WithLabelValues("access", "C1", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.parsedTotal.WithLabelValues("audit", "C1", StatusUnvalidated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.parsedTotal.WithLabelValues("access", "C1", StatusParseError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.parsedTotal.WithLabelValues("invite", "invite", StatusValidationError)))

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_manager_tokens_parsed_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = testutil.GatherAndCount(metrics.Registry(), "test_manager_tokens_created_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestManagerMetricsBoundUnknownTypeNames(t *testing.T) {
	f := newManagerFixture(t)
	metrics := NewMetrics("test")
	m := f.manager(t, WithMetrics(metrics))

	for i := 0; i < 5; i++ {
		_, err := m.Create(fmt.Sprintf("random-%d", i), nil, nil)
		require.Error(t, err)
		_, err = m.Parse("a.b.c", fmt.Sprintf("random-%d", i))
		require.Error(t, err)
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.createdTotal.WithLabelValues(unknownTypeLabel, "", StatusResolutionError)))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.parsedTotal.WithLabelValues(unknownTypeLabel, "", StatusResolutionError)))

	created, err := testutil.GatherAndCount(metrics.Registry(), "test_manager_tokens_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	parsed, err := testutil.GatherAndCount(metrics.Registry(), "test_manager_tokens_parsed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, parsed)
}

func TestManagerLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newManagerFixture(t)
	m := f.manager(t, WithLogger(zap.New(core)))

	raw, err := m.Create("access", map[string]any{"sub": "u1"}, nil)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = m.Parse(raw, "access")
	require.Error(t, err)

	failures := logs.FilterMessage("token validation failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.WarnLevel, failures[0].Level)
	assert.Equal(t, "access", failures[0].ContextMap()["type"])

	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			assert.False(t, strings.Contains(field.String, raw), "token leaked into log field %s", field.Key)
		}
	}
}

func TestManagerConcurrentUse(t *testing.T) {
	f := newManagerFixture(t)
	m := f.manager(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typeName := "access"
			if i%2 == 0 {
				typeName = "invite"
			}

			raw, err := m.Create(typeName, map[string]any{"n": i}, nil)
			if !assert.NoError(t, err) {
				return
			}
			token, err := m.Parse(raw, typeName)
			if !assert.NoError(t, err) {
				return
			}
			n, _ := token.Claim("n")
			assert.EqualValues(t, i, n)
		}(i)
	}
	wg.Wait()
}

func TestManagerZeroValueStandardType(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("zero", &StandardType{})
	f.types.MustRegister("zero-ttl", &StandardType{ttl: time.Hour, tokenID: true})
	m := f.manager(t)

	for _, typeName := range []string{"zero", "zero-ttl"} {
		t.Run(typeName, func(t *testing.T) {
			var raw string
			require.NotPanics(t, func() {
				var err error
				raw, err = m.Create(typeName, map[string]any{"sub": "u1"}, nil)
				require.NoError(t, err)
			})

			token, err := m.Parse(raw, typeName)
			require.NoError(t, err)
			assert.Equal(t, "u1", token.Subject())
		})
	}

	token, err := m.Parse(mustCreate(t, m, "zero-ttl"), "zero-ttl")
	require.NoError(t, err)
	_, ok := token.ExpiresAt()
	assert.True(t, ok)
	assert.NotEmpty(t, token.ID())
}

func TestManagerRejectsMalformedTimeClaims(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("strict", NewType(WithStrictTime(), WithClock(f.clock)))
	f.types.MustRegister("loose", NewType(WithClock(f.clock)))
	m := f.manager(t)

	tests := []struct {
		typeName string
		claims   map[string]any
	}{
		{"strict", map[string]any{"iat": "x", "nbf": "x", "exp": "1970-01-01"}},
		{"loose", map[string]any{"exp": "1970-01-01"}},
		{"loose", map[string]any{"nbf": 1e19}},
	}

	for _, tt := range tests {
		raw, err := m.Create(tt.typeName, tt.claims, nil)
		require.NoError(t, err)

		_, err = m.Parse(raw, tt.typeName)
		require.Error(t, err, tt.claims)
		assert.True(t, IsValidationError(err))
		assert.ErrorIs(t, err, ErrTokenMalformed)
	}
}

func mustCreate(t *testing.T, m *Manager, typeName string) string {
	t.Helper()

	raw, err := m.Create(typeName, nil, nil)
	require.NoError(t, err)
	return raw
}

func TestManagerCallerAudienceMergesWithType(t *testing.T) {
	f := newManagerFixture(t)
	f.types.MustRegister("api", NewType(WithTypeAudience("c")))
	m := f.manager(t)

	raw, err := m.Create("api", map[string]any{"aud": []any{"a", "b"}}, nil)
	require.NoError(t, err)

	token, err := m.Parse(raw, "api")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, token.Audience())
}

func TestManagerOnlyTypeValuesAreCallerProof(t *testing.T) {
	cfg := newTestConfiguration(t, "stamped", "k3", WithKeyID("cfg-kid"), WithIssuer("cfg-iss"))
	f := newManagerFixture(t)
	f.configs.MustRegister(cfg)
	f.types.MustRegister("stamped", NewType(WithConfigurationName("stamped"), WithoutValidation()))
	f.types.MustRegister("pinned", NewType(
		WithConfigurationName("stamped"),
		WithTypeIssuer("type-iss"),
		WithFixedHeader("kid", "type-kid"),
		WithoutValidation(),
	))
	m := f.manager(t)

	caller := map[string]any{"iss": "caller-iss"}
	callerHeaders := map[string]any{"kid": "caller-kid"}

	token, err := m.Parse(mustCreateWith(t, m, "stamped", caller, callerHeaders), "stamped")
	require.NoError(t, err)
	assert.Equal(t, "caller-iss", token.Issuer())
	assert.Equal(t, "caller-kid", token.KeyID())

	token, err = m.Parse(mustCreateWith(t, m, "pinned", caller, callerHeaders), "pinned")
	require.NoError(t, err)
	assert.Equal(t, "type-iss", token.Issuer())
	assert.Equal(t, "type-kid", token.KeyID())
}

func mustCreateWith(t *testing.T, m *Manager, typeName string, claims, headers map[string]any) string {
	t.Helper()

	raw, err := m.Create(typeName, claims, headers)
	require.NoError(t, err)
	return raw
}
