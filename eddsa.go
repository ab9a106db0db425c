package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
)

// EdDSAAlgorithm implements EdDSA-based JWT signing (Ed25519)
type EdDSAAlgorithm struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewEdDSA creates a new EdDSA algorithm instance
func NewEdDSA(privateKey ed25519.PrivateKey) Algorithm {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil
	}

	publicKey, ok := privateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil
	}

	return &EdDSAAlgorithm{
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

// NewEdDSAWithPublicKey creates a verification-only EdDSA instance
func NewEdDSAWithPublicKey(publicKey ed25519.PublicKey) Algorithm {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil
	}

	return &EdDSAAlgorithm{
		publicKey: publicKey,
	}
}

// GenerateEdDSAKey generates a new Ed25519 key pair
func GenerateEdDSAKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// Name returns the algorithm name
func (e *EdDSAAlgorithm) Name() string {
	return AlgEdDSA
}

func (e *EdDSAAlgorithm) canSign() bool {
	return e.privateKey != nil
}

// Sign signs the payload using EdDSA
func (e *EdDSAAlgorithm) Sign(payload []byte) ([]byte, error) {
	if e.privateKey == nil {
		return nil, ErrInvalidKeyType
	}

	return ed25519.Sign(e.privateKey, payload), nil
}

// Verify verifies the signature using EdDSA
func (e *EdDSAAlgorithm) Verify(payload, signature []byte) error {
	if e.publicKey == nil {
		return ErrInvalidKeyType
	}

	if !ed25519.Verify(e.publicKey, payload, signature) {
		return ErrTokenInvalidSignature
	}

	return nil
}
