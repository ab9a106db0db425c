package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// HMACAlgorithm implements HMAC-based JWT signing.
// The same secret signs and verifies.
type HMACAlgorithm struct {
	name   string
	hash   func() hash.Hash
	secret []byte
}

// NewHS256 creates a new HMAC-SHA256 algorithm instance
func NewHS256(secret []byte) Algorithm {
	return newHMAC(AlgHS256, sha256.New, secret)
}

// NewHS384 creates a new HMAC-SHA384 algorithm instance
func NewHS384(secret []byte) Algorithm {
	return newHMAC(AlgHS384, sha512.New384, secret)
}

// NewHS512 creates a new HMAC-SHA512 algorithm instance
func NewHS512(secret []byte) Algorithm {
	return newHMAC(AlgHS512, sha512.New, secret)
}

func newHMAC(name string, h func() hash.Hash, secret []byte) Algorithm {
	if len(secret) == 0 {
		return nil
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &HMACAlgorithm{
		name:   name,
		hash:   h,
		secret: key,
	}
}

// Name returns the algorithm name
func (h *HMACAlgorithm) Name() string {
	return h.name
}

// Sign signs the payload using HMAC
func (h *HMACAlgorithm) Sign(payload []byte) ([]byte, error) {
	mac := hmac.New(h.hash, h.secret)
	mac.Write(payload)
	return mac.Sum(nil), nil
}

// Verify verifies the signature using HMAC
func (h *HMACAlgorithm) Verify(payload, signature []byte) error {
	mac := hmac.New(h.hash, h.secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !hmac.Equal(signature, expected) {
		return ErrTokenInvalidSignature
	}
	return nil
}
