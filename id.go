package noteapp

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// IDGenerator produces opaque identifiers for new records.
type IDGenerator interface {
	ID() string
}

// uuidGenerator generates random 32-character hex identifiers.
type uuidGenerator struct{}

// NewIDGenerator returns the default IDGenerator.
func NewIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) ID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
