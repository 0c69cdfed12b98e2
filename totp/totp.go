// Package totp derives Steam's 5-character alphanumeric login codes from
// a 20-byte shared secret and the current server time. It is Steam's own
// variant of RFC 6238: a 30-second window, HMAC-SHA1, dynamic truncation,
// and a base-26 alphabet instead of base-10 digits. The derivation itself
// is delegated to bbqtd/go-steam-authenticator, the teacher's own
// dependency for exactly this job; this package adapts that call to the
// byte-secret/millisecond-time shape the rest of this module uses.
package totp

import (
	"encoding/base64"
	"errors"

	authenticator "github.com/bbqtd/go-steam-authenticator"
)

// Alphabet is Steam's 26-character code alphabet. Ambiguous glyphs
// (0, 1, A, E, I, L, O, S, U, Z) are deliberately omitted.
const Alphabet = "23456789BCDFGHJKMNPQRTVWXY"

// CodeLength is the number of characters Steam login codes always have.
const CodeLength = 5

// IntervalMs is the width of one TOTP time step, in milliseconds.
const IntervalMs = 30_000

// ErrNotEnrolled is returned when GenerateCode is called with an empty secret.
var ErrNotEnrolled = errors.New("totp: not enrolled: secret key is empty")

// GenerateCode derives the current 5-character Steam login code for
// secretKey at server time tServerMs (milliseconds since the epoch).
func GenerateCode(secretKey []byte, tServerMs int64) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrNotEnrolled
	}

	secretBase64 := base64.StdEncoding.EncodeToString(secretKey)
	timer := func() uint64 { return uint64(tServerMs) / 1000 }

	code, err := authenticator.GenerateAuthCode(secretBase64, timer)
	if err != nil {
		return "", err
	}
	return code, nil
}

// Interval returns the TOTP window index for server time tServerMs.
func Interval(tServerMs int64) uint64 {
	return uint64(tServerMs) / IntervalMs
}
