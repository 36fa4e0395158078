package directory

import (
	"fmt"

	"github.com/google/uuid"
)

// GUIDFromAD converts a raw objectGUID (little-endian first three groups)
// into its RFC 4122 string.
func GUIDFromAD(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("objectGUID: expected 16 bytes, got %d", len(raw))
	}
	b := make([]byte, 16)
	copy(b, raw)
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]

	u, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("objectGUID: %w", err)
	}
	return u.String(), nil
}
