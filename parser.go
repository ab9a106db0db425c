package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Parser decodes a serialized token. It does not verify the signature;
// that is the job of the SignedWith constraint.
type Parser interface {
	Parse(raw string) (*Token, error)
}

type parser struct{}

// NewParser returns the compact-serialization parser.
func NewParser() Parser {
	return parser{}
}

// Parse splits, decodes and unmarshals a compact JWT.
func (parser) Parse(raw string) (*Token, error) {
	headerPart, claimsPart, signaturePart, err := splitToken(raw)
	if err != nil {
		return nil, err
	}

	headers, err := decodeJSONSegment(headerPart)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTokenMalformed, err)
	}
	if alg, ok := headers[HeaderAlgorithm].(string); !ok || alg == "" {
		return nil, fmt.Errorf("%w: missing alg header", ErrTokenMalformed)
	}

	claims, err := decodeJSONSegment(claimsPart)
	if err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrTokenMalformed, err)
	}

	signature, err := decodeSegment(signaturePart)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrTokenMalformed, err)
	}

	return &Token{
		raw:       raw,
		payload:   raw[:len(headerPart)+1+len(claimsPart)],
		headers:   headers,
		claims:    claims,
		signature: signature,
	}, nil
}

// splitToken parses JWT token into its components
func splitToken(raw string) (headerPart, claimsPart, signaturePart string, err error) {
	firstDot := strings.IndexByte(raw, '.')
	if firstDot <= 0 {
		return "", "", "", fmt.Errorf("%w: expected three segments", ErrTokenMalformed)
	}

	secondDot := strings.IndexByte(raw[firstDot+1:], '.')
	if secondDot == -1 {
		return "", "", "", fmt.Errorf("%w: expected three segments", ErrTokenMalformed)
	}
	secondDot += firstDot + 1

	if secondDot == firstDot+1 || secondDot >= len(raw)-1 {
		return "", "", "", fmt.Errorf("%w: empty segment", ErrTokenMalformed)
	}

	if strings.IndexByte(raw[secondDot+1:], '.') != -1 {
		return "", "", "", fmt.Errorf("%w: expected three segments", ErrTokenMalformed)
	}

	return raw[:firstDot], raw[firstDot+1 : secondDot], raw[secondDot+1:], nil
}

func decodeJSONSegment(segment string) (map[string]any, error) {
	data, err := decodeSegment(segment)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("not a JSON object")
	}
	return out, nil
}
