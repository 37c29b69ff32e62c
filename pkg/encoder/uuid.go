package encoder

import (
	"fmt"

	"github.com/google/uuid"
)

// Active Directory stores GUIDs with the first three groups little endian.
func swap(b []byte) []byte {
	return []byte{b[3], b[2], b[1], b[0], b[5], b[4], b[7], b[6], b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15]}
}

// UUIDFromString returns the on-the-wire representation of a textual GUID.
func UUIDFromString(s string) ([]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return swap(u[:]), nil
}

// GUIDFromBytes decodes a 16 byte objectGUID-style value.
func GUIDFromBytes(b []byte) (uuid.UUID, error) {
	if len(b) != 16 {
		return uuid.Nil, fmt.Errorf("invalid guid length %d", len(b))
	}
	return uuid.FromBytes(swap(b))
}

func StringFromUUID(b []byte) (string, error) {
	u, err := GUIDFromBytes(b)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
