package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
)

// ECDSAAlgorithm implements ECDSA-based JWT signing.
// Signatures use the fixed-length r||s encoding from RFC 7518.
type ECDSAAlgorithm struct {
	name       string
	hash       crypto.Hash
	curve      elliptic.Curve
	keySize    int
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
}

type ecdsaParams struct {
	hash    crypto.Hash
	curve   elliptic.Curve
	keySize int
}

var ecdsaByName = map[string]ecdsaParams{
	AlgES256: {hash: crypto.SHA256, curve: elliptic.P256(), keySize: 32},
	AlgES384: {hash: crypto.SHA384, curve: elliptic.P384(), keySize: 48},
	AlgES512: {hash: crypto.SHA512, curve: elliptic.P521(), keySize: 66},
}

// NewES256 creates a new ECDSA-SHA256 algorithm instance (P-256 curve)
func NewES256(privateKey *ecdsa.PrivateKey) Algorithm {
	return newECDSA(AlgES256, privateKey, nil)
}

// NewES384 creates a new ECDSA-SHA384 algorithm instance (P-384 curve)
func NewES384(privateKey *ecdsa.PrivateKey) Algorithm {
	return newECDSA(AlgES384, privateKey, nil)
}

// NewES512 creates a new ECDSA-SHA512 algorithm instance (P-521 curve)
func NewES512(privateKey *ecdsa.PrivateKey) Algorithm {
	return newECDSA(AlgES512, privateKey, nil)
}

// NewES256WithPublicKey creates a verification-only ES256 instance
func NewES256WithPublicKey(publicKey *ecdsa.PublicKey) Algorithm {
	return newECDSA(AlgES256, nil, publicKey)
}

// NewES384WithPublicKey creates a verification-only ES384 instance
func NewES384WithPublicKey(publicKey *ecdsa.PublicKey) Algorithm {
	return newECDSA(AlgES384, nil, publicKey)
}

// NewES512WithPublicKey creates a verification-only ES512 instance
func NewES512WithPublicKey(publicKey *ecdsa.PublicKey) Algorithm {
	return newECDSA(AlgES512, nil, publicKey)
}

func newECDSA(name string, privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) Algorithm {
	if privateKey != nil {
		publicKey = &privateKey.PublicKey
	}
	if publicKey == nil {
		return nil
	}

	params := ecdsaByName[name]
	if publicKey.Curve != params.curve {
		return nil
	}

	return &ECDSAAlgorithm{
		name:       name,
		hash:       params.hash,
		curve:      params.curve,
		keySize:    params.keySize,
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

// Name returns the algorithm name
func (e *ECDSAAlgorithm) Name() string {
	return e.name
}

func (e *ECDSAAlgorithm) canSign() bool {
	return e.privateKey != nil
}

func (e *ECDSAAlgorithm) digest(payload []byte) []byte {
	h := e.hash.New()
	h.Write(payload)
	return h.Sum(nil)
}

// Sign signs the payload using ECDSA
func (e *ECDSAAlgorithm) Sign(payload []byte) ([]byte, error) {
	if e.privateKey == nil {
		return nil, ErrInvalidKeyType
	}

	r, s, err := ecdsa.Sign(rand.Reader, e.privateKey, e.digest(payload))
	if err != nil {
		return nil, err
	}

	rBytes := r.Bytes()
	sBytes := s.Bytes()

	signature := make([]byte, 2*e.keySize)
	copy(signature[e.keySize-len(rBytes):e.keySize], rBytes)
	copy(signature[2*e.keySize-len(sBytes):], sBytes)

	return signature, nil
}

// Verify verifies the signature using ECDSA
func (e *ECDSAAlgorithm) Verify(payload, signature []byte) error {
	if e.publicKey == nil {
		return ErrInvalidKeyType
	}

	if len(signature) != 2*e.keySize {
		return ErrTokenInvalidSignature
	}

	r := new(big.Int).SetBytes(signature[:e.keySize])
	s := new(big.Int).SetBytes(signature[e.keySize:])

	if !ecdsa.Verify(e.publicKey, e.digest(payload), r, s) {
		return ErrTokenInvalidSignature
	}

	return nil
}
