// Package steamid parses and formats Steam's 64-bit account identifiers,
// and derives the per-install device identifier the enrollment driver
// registers with Steam.
package steamid

import (
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/kavutra/steamguard/crypto"
)

// SteamID is a SteamID64, Steam's canonical 64-bit account identifier.
type SteamID uint64

// Parse parses a decimal SteamID64 string, as returned by getrsakey and
// dologin.
func Parse(s string) (SteamID, error) {
	if s == "" {
		return 0, errors.New("steamid: empty string")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return SteamID(v), nil
}

func (id SteamID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// DeviceIDPrefix is prepended to every device identifier this module
// generates, per Steam's Android client convention.
const DeviceIDPrefix = "android:"

// NewDeviceID derives a fresh device_id of the form
// "android:" || lowercase_hex(sha1(4 random bytes)), matching the shape
// Steam's own Android authenticator app uses.
func NewDeviceID() (string, error) {
	random, err := crypto.RandomBytes(4)
	if err != nil {
		return "", err
	}
	sum := crypto.SHA1(random)
	return DeviceIDPrefix + hex.EncodeToString(sum[:]), nil
}
