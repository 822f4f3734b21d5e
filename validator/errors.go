package validator

import "errors"

// Messages carried by InvalidIDTokenError.
const (
	msgDecode         = "ID token could not be decoded"
	msgSignature      = "Invalid ID token signature"
	msgFetchFailed    = "Could not fetch the JWK set"
	msgClaimsRejected = "ID token claims were rejected"
	fmtAlgMismatch    = `Signature algorithm of "%s" is not supported. Expected the ID token to be signed with "%s"`
	fmtAlgUnsupported = `Signature algorithm of "%s" is not supported`
	fmtKeyNotFound    = `Could not find a public key for Key ID (kid) "%s"`
)

var (
	// ErrInvalidIDToken is matched by every *InvalidIDTokenError.
	ErrInvalidIDToken = errors.New("invalid ID token")

	// ErrInvalidParameter is matched by every *InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// InvalidIDTokenError is returned for any token that fails validation.
type InvalidIDTokenError struct {
	// Message tells decode failures, algorithm mismatches, bad signatures
	// and missing keys apart.
	Message string

	// Code is the matching core.ErrorCode* value.
	Code string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns Message. The cause is available through Unwrap.
func (e *InvalidIDTokenError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *InvalidIDTokenError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidIDToken.
func (e *InvalidIDTokenError) Is(target error) bool {
	return target == ErrInvalidIDToken
}

// ErrorCode returns Code. core.Core uses it to build a core.ValidationError.
func (e *InvalidIDTokenError) ErrorCode() string {
	return e.Code
}

func invalidIDToken(code, message string, err error) *InvalidIDTokenError {
	return &InvalidIDTokenError{Message: message, Code: code, Err: err}
}

// InvalidParameterError is returned by constructors given bad arguments.
type InvalidParameterError struct {
	Message string
}

func (e *InvalidParameterError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func invalidParameter(message string) *InvalidParameterError {
	return &InvalidParameterError{Message: message}
}
