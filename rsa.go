package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// RSAAlgorithm implements RSA PKCS#1 v1.5 JWT signing
type RSAAlgorithm struct {
	name       string
	hash       crypto.Hash
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewRS256 creates a new RSA-SHA256 algorithm instance
func NewRS256(privateKey *rsa.PrivateKey) Algorithm {
	return newRSA(AlgRS256, crypto.SHA256, privateKey)
}

// NewRS384 creates a new RSA-SHA384 algorithm instance
func NewRS384(privateKey *rsa.PrivateKey) Algorithm {
	return newRSA(AlgRS384, crypto.SHA384, privateKey)
}

// NewRS512 creates a new RSA-SHA512 algorithm instance
func NewRS512(privateKey *rsa.PrivateKey) Algorithm {
	return newRSA(AlgRS512, crypto.SHA512, privateKey)
}

// NewRS256WithPublicKey creates a verification-only RS256 instance
func NewRS256WithPublicKey(publicKey *rsa.PublicKey) Algorithm {
	return newRSAPublic(AlgRS256, crypto.SHA256, publicKey)
}

// NewRS384WithPublicKey creates a verification-only RS384 instance
func NewRS384WithPublicKey(publicKey *rsa.PublicKey) Algorithm {
	return newRSAPublic(AlgRS384, crypto.SHA384, publicKey)
}

// NewRS512WithPublicKey creates a verification-only RS512 instance
func NewRS512WithPublicKey(publicKey *rsa.PublicKey) Algorithm {
	return newRSAPublic(AlgRS512, crypto.SHA512, publicKey)
}

func newRSA(name string, h crypto.Hash, privateKey *rsa.PrivateKey) Algorithm {
	if privateKey == nil {
		return nil
	}
	return &RSAAlgorithm{
		name:       name,
		hash:       h,
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
	}
}

func newRSAPublic(name string, h crypto.Hash, publicKey *rsa.PublicKey) Algorithm {
	if publicKey == nil {
		return nil
	}
	return &RSAAlgorithm{
		name:      name,
		hash:      h,
		publicKey: publicKey,
	}
}

// Name returns the algorithm name
func (r *RSAAlgorithm) Name() string {
	return r.name
}

func (r *RSAAlgorithm) canSign() bool {
	return r.privateKey != nil
}

// Sign signs the payload using RSA
func (r *RSAAlgorithm) Sign(payload []byte) ([]byte, error) {
	if r.privateKey == nil {
		return nil, ErrInvalidKeyType
	}

	h := r.hash.New()
	h.Write(payload)
	return rsa.SignPKCS1v15(rand.Reader, r.privateKey, r.hash, h.Sum(nil))
}

// Verify verifies the signature using RSA
func (r *RSAAlgorithm) Verify(payload, signature []byte) error {
	if r.publicKey == nil {
		return ErrInvalidKeyType
	}

	h := r.hash.New()
	h.Write(payload)
	if err := rsa.VerifyPKCS1v15(r.publicKey, r.hash, h.Sum(nil), signature); err != nil {
		return ErrTokenInvalidSignature
	}
	return nil
}
