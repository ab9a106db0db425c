package jwt

// Validator asserts constraints against a parsed token.
type Validator interface {
	// Assert checks every constraint and returns a *ValidationError
	// listing all violations.
	Assert(token *Token, constraints ...Constraint) error
	// Validate reports whether every constraint holds.
	Validate(token *Token, constraints ...Constraint) bool
}

type validator struct{}

// NewValidator returns the default Validator.
func NewValidator() Validator {
	return validator{}
}

func (validator) Assert(token *Token, constraints ...Constraint) error {
	if len(constraints) == 0 {
		return ErrNoConstraints
	}

	var violations []ConstraintViolation
	for _, c := range constraints {
		if c == nil {
			continue
		}
		if err := c.Assert(token); err != nil {
			violations = append(violations, ConstraintViolation{Constraint: c, Cause: err})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (validator) Validate(token *Token, constraints ...Constraint) bool {
	if len(constraints) == 0 {
		return false
	}
	for _, c := range constraints {
		if c == nil {
			continue
		}
		if c.Assert(token) != nil {
			return false
		}
	}
	return true
}
