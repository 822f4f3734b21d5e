package validator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// maxTokenSize bounds the input before any decoding work.
const maxTokenSize = 1024 * 1024

var (
	errTokenEmpty    = errors.New("token is empty")
	errTokenTooLarge = errors.New("token exceeds maximum size (1MB)")
	errSegmentCount  = errors.New("token must have three segments")
)

// validateTokenFormat rejects tokens that are not compact JWS before they
// reach the crypto library.
func validateTokenFormat(token string) error {
	if token == "" {
		return errTokenEmpty
	}
	if len(token) > maxTokenSize {
		return errTokenTooLarge
	}
	if strings.Count(token, ".") != 2 {
		return errSegmentCount
	}
	return nil
}

// decodeSegment base64url-decodes a JSON object segment. Padding and
// non-canonical trailing bits are rejected.
func decodeSegment(segment string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.Strict().DecodeString(segment)
	if err != nil {
		return nil, err
	}

	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, err
	}
	if object == nil {
		return nil, errors.New("segment is not a JSON object")
	}
	return object, nil
}
