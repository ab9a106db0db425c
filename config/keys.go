package config

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	jwt "github.com/krajcik/go-jwt-registry"
)

var (
	hmacAlgorithms = map[string]func([]byte) jwt.Algorithm{
		jwt.AlgHS256: jwt.NewHS256,
		jwt.AlgHS384: jwt.NewHS384,
		jwt.AlgHS512: jwt.NewHS512,
	}
	rsaSigners = map[string]func(*rsa.PrivateKey) jwt.Algorithm{
		jwt.AlgRS256: jwt.NewRS256,
		jwt.AlgRS384: jwt.NewRS384,
		jwt.AlgRS512: jwt.NewRS512,
	}
	rsaVerifiers = map[string]func(*rsa.PublicKey) jwt.Algorithm{
		jwt.AlgRS256: jwt.NewRS256WithPublicKey,
		jwt.AlgRS384: jwt.NewRS384WithPublicKey,
		jwt.AlgRS512: jwt.NewRS512WithPublicKey,
	}
	ecSigners = map[string]func(*ecdsa.PrivateKey) jwt.Algorithm{
		jwt.AlgES256: jwt.NewES256,
		jwt.AlgES384: jwt.NewES384,
		jwt.AlgES512: jwt.NewES512,
	}
	ecVerifiers = map[string]func(*ecdsa.PublicKey) jwt.Algorithm{
		jwt.AlgES256: jwt.NewES256WithPublicKey,
		jwt.AlgES384: jwt.NewES384WithPublicKey,
		jwt.AlgES512: jwt.NewES512WithPublicKey,
	}
)

// ErrKeyMismatch is returned when key material does not fit the algorithm.
var ErrKeyMismatch = errors.New("key does not match algorithm")

// NewAlgorithm loads the key material of spec and returns the signing and
// verification algorithms. Public-key-only specs return a verification-only
// algorithm for both.
func (f *File) NewAlgorithm(spec ConfigurationSpec) (signer, verifier jwt.Algorithm, err error) {
	privData, err := f.material(spec.PrivateKey, spec.PrivateKeyFile)
	if err != nil {
		return nil, nil, err
	}
	pubData, err := f.material(spec.PublicKey, spec.PublicKeyFile)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case isHMAC(spec.Algorithm):
		secret, err := f.hmacSecret(spec, privData)
		if err != nil {
			return nil, nil, err
		}
		alg := hmacAlgorithms[spec.Algorithm](secret)
		if alg == nil {
			return nil, nil, fmt.Errorf("%s: empty secret", spec.Algorithm)
		}
		return alg, alg, nil

	case rsaSigners[spec.Algorithm] != nil:
		priv, pub, err := loadKeyPair(spec.KeyFormat, privData, pubData,
			gjwt.ParseRSAPrivateKeyFromPEM, gjwt.ParseRSAPublicKeyFromPEM)
		if err != nil {
			return nil, nil, err
		}
		return pair(len(privData) > 0, len(pubData) > 0, priv, pub, rsaSigners[spec.Algorithm], rsaVerifiers[spec.Algorithm])

	case ecSigners[spec.Algorithm] != nil:
		priv, pub, err := loadKeyPair(spec.KeyFormat, privData, pubData,
			gjwt.ParseECPrivateKeyFromPEM, gjwt.ParseECPublicKeyFromPEM)
		if err != nil {
			return nil, nil, err
		}
		return pair(len(privData) > 0, len(pubData) > 0, priv, pub, ecSigners[spec.Algorithm], ecVerifiers[spec.Algorithm])

	case spec.Algorithm == jwt.AlgEdDSA:
		priv, pub, err := loadKeyPair(spec.KeyFormat, privData, pubData, parseEdPrivateKey, parseEdPublicKey)
		if err != nil {
			return nil, nil, err
		}
		return pair(len(privData) > 0, len(pubData) > 0, priv, pub, jwt.NewEdDSA, jwt.NewEdDSAWithPublicKey)

	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q", spec.Algorithm)
	}
}

// pair builds signer and verifier from whichever keys were supplied.
func pair[Priv any, Pub any](
	hasPriv, hasPub bool,
	priv Priv, pub Pub,
	newSigner func(Priv) jwt.Algorithm,
	newVerifier func(Pub) jwt.Algorithm,
) (jwt.Algorithm, jwt.Algorithm, error) {
	var signer, verifier jwt.Algorithm
	if hasPriv {
		if signer = newSigner(priv); signer == nil {
			return nil, nil, ErrKeyMismatch
		}
	}
	if hasPub {
		if verifier = newVerifier(pub); verifier == nil {
			return nil, nil, ErrKeyMismatch
		}
	}

	switch {
	case signer == nil && verifier == nil:
		return nil, nil, errors.New("no key material")
	case signer == nil:
		signer = verifier
	case verifier == nil:
		verifier = signer
	}
	return signer, verifier, nil
}

// loadKeyPair decodes private and public key material as PEM or JWK.
func loadKeyPair[Priv any, Pub any](
	format string,
	privData, pubData []byte,
	parsePriv func([]byte) (Priv, error),
	parsePub func([]byte) (Pub, error),
) (priv Priv, pub Pub, err error) {
	if len(privData) > 0 {
		if format == "jwk" {
			priv, err = fromJWK[Priv](privData)
		} else {
			priv, err = parsePriv(privData)
		}
		if err != nil {
			return priv, pub, fmt.Errorf("private key: %w", err)
		}
	}
	if len(pubData) > 0 {
		if format == "jwk" {
			pub, err = fromJWK[Pub](pubData)
		} else {
			pub, err = parsePub(pubData)
		}
		if err != nil {
			return priv, pub, fmt.Errorf("public key: %w", err)
		}
	}
	return priv, pub, nil
}

// fromJWK parses a single JWK and extracts its raw key as T.
func fromJWK[T any](data []byte) (T, error) {
	var zero T

	key, err := jwk.ParseKey(data)
	if err != nil {
		return zero, err
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return zero, err
	}

	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: JWK holds %T", ErrKeyMismatch, raw)
	}
	return typed, nil
}

func (f *File) hmacSecret(spec ConfigurationSpec, privData []byte) ([]byte, error) {
	if spec.KeyFormat == "jwk" {
		return fromJWK[[]byte](privData)
	}
	return f.material(spec.Secret, spec.SecretFile)
}

// material returns inline data, or the contents of file when inline is empty.
func (f *File) material(inline, file string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.resolvePath(file)) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

func parseEdPrivateKey(data []byte) (ed25519.PrivateKey, error) {
	parsed, err := gjwt.ParseEdPrivateKeyFromPEM(data)
	if err != nil {
		return nil, err
	}
	return asType[ed25519.PrivateKey](parsed)
}

func parseEdPublicKey(data []byte) (ed25519.PublicKey, error) {
	parsed, err := gjwt.ParseEdPublicKeyFromPEM(data)
	if err != nil {
		return nil, err
	}
	return asType[ed25519.PublicKey](parsed)
}

func asType[T any](key any) (T, error) {
	typed, ok := key.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: got %T", ErrKeyMismatch, key)
	}
	return typed, nil
}
