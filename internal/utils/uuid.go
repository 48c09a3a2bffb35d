package utils

import "github.com/google/uuid"

// UUIDGenerator generates time-ordered (v7) identifiers. Falls back to a
// random v4 id if the v7 clock sequence cannot be read.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
