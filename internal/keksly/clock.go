package keksly

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so history timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts identifier generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random version 4 UUIDs. If the system randomness
// source fails it falls back to a template filled from a pseudo-random source
// so an identifier is always produced.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string {
	id, err := uuid.NewRandomFromReader(cryptorand.Reader)
	if err != nil {
		return templateUUID()
	}
	return id.String()
}

const uuidTemplate = "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx"

func templateUUID() string {
	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(uuidTemplate))
	for _, c := range uuidTemplate {
		switch c {
		case 'x':
			b.WriteByte(hex[rand.IntN(16)])
		case 'y':
			b.WriteByte(hex[rand.IntN(4)|0x8])
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
