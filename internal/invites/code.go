package invites

import (
	"math/rand/v2"
	"strings"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// NewCode returns an 8-character uppercase alphanumeric invite code, one
// independent uniform draw per character. The 36^8 space makes collisions a
// documented best-effort risk; the unique index on invites.code turns the
// rare collision into a create-time error instead of silent reuse.
func NewCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode uppercases and trims a user-supplied code before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
