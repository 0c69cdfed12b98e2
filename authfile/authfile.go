// Package authfile implements the stable, delimited-string persistence
// contract for an enrolled authenticator: the shape a parent "save my
// secret somewhere" abstraction round-trips through storage.
package authfile

import (
	"encoding/hex"
	"strings"

	"github.com/samber/lo"
)

// Record mirrors the fields a caller persists after a successful
// enrollment. BaseSecret is whatever the parent authenticator
// abstraction emits for the shared secret (at minimum hex-encoded
// secret_key); this package treats it as an opaque string and never
// hex-encodes it a second time.
type Record struct {
	BaseSecret     string
	Serial         string
	DeviceID       string
	RevocationCode string
}

// Serialize renders r as "<base_secret>|<hex(serial)>|<hex(device_id)>|<hex(revocation_code)>".
func Serialize(r Record) string {
	fields := lo.Map(
		[]string{r.Serial, r.DeviceID, r.RevocationCode},
		func(s string, _ int) string { return hex.EncodeToString([]byte(s)) },
	)
	return strings.Join(append([]string{r.BaseSecret}, fields...), "|")
}

// Deserialize parses s back into a Record. Missing trailing fields
// decode as empty strings; an empty input clears every field.
func Deserialize(s string) Record {
	if s == "" {
		return Record{}
	}

	parts := strings.Split(s, "|")
	var r Record
	if len(parts) > 0 {
		r.BaseSecret = parts[0]
	}
	if len(parts) > 1 {
		r.Serial = decodeHexOrEmpty(parts[1])
	}
	if len(parts) > 2 {
		r.DeviceID = decodeHexOrEmpty(parts[2])
	}
	if len(parts) > 3 {
		r.RevocationCode = decodeHexOrEmpty(parts[3])
	}
	return r
}

func decodeHexOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(b)
}
