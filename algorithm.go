package jwt

// Algorithm names as they appear in the "alg" header.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
	AlgRS256 = "RS256"
	AlgRS384 = "RS384"
	AlgRS512 = "RS512"
	AlgES256 = "ES256"
	AlgES384 = "ES384"
	AlgES512 = "ES512"
	AlgEdDSA = "EdDSA"
)

// Algorithm pairs a signing algorithm with its key material.
//
// Verification-only instances (built from a public key) return
// ErrInvalidKeyType from Sign.
type Algorithm interface {
	// Name returns the algorithm name for the JWT header (e.g., "HS256", "RS256", "ES256")
	Name() string
	// Sign creates a signature for the given payload
	Sign(payload []byte) ([]byte, error)
	// Verify checks if the signature is valid for the given payload
	Verify(payload []byte, signature []byte) error
}

// CanSign reports whether alg holds private key material.
func CanSign(alg Algorithm) bool {
	if alg == nil {
		return false
	}
	if s, ok := alg.(interface{ canSign() bool }); ok {
		return s.canSign()
	}
	return true
}
