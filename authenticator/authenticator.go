// Package authenticator is the steady-state surface a caller uses once
// enrollment (see package enroll) has produced a shared secret: deriving
// login codes and keeping them aligned with Steam's clock. It is safe to
// read/generate codes from multiple goroutines; server_time_diff_ms
// updates are serialized internally by the embedded time synchronizer.
package authenticator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kavutra/steamguard/authfile"
	"github.com/kavutra/steamguard/timesync"
	"github.com/kavutra/steamguard/totp"
	"github.com/kavutra/steamguard/transport"
)

// NotEnrolled is returned when a code is requested from an unlocked
// Authenticator that has no secret key, whatever its device id and serial.
var NotEnrolled = errors.New("authenticator: not enrolled: no secret key")

// EncryptedSecretData is returned when a caller invokes CalculateCode or
// Sync on an Authenticator whose secret has been deliberately withheld
// pending decryption by the external storage layer (see Unlock).
type EncryptedSecretData struct{}

func (*EncryptedSecretData) Error() string {
	return "authenticator: secret key is locked; call Unlock first"
}

// Authenticator is the persistent result of a successful enrollment:
// the shared secret plus the identifiers Steam issued alongside it.
type Authenticator struct {
	AccountName    string
	Serial         string
	DeviceID       string
	RevocationCode string

	secretKey []byte
	locked    bool

	syncer *timesync.Syncer
}

// Option configures an Authenticator.
type Option = timesync.Option

// New returns an Authenticator for an already-decrypted secretKey.
func New(doer transport.Doer, secretKey []byte, serial, deviceID, revocationCode string, opts ...Option) *Authenticator {
	return &Authenticator{
		Serial:         serial,
		DeviceID:       deviceID,
		RevocationCode: revocationCode,
		secretKey:      secretKey,
		syncer:         timesync.New(doer, opts...),
	}
}

// Locked returns an Authenticator whose secret is withheld pending
// Unlock, for a caller whose storage layer hasn't decrypted the blob
// yet. Every identifying field besides the secret is still usable.
func Locked(serial, deviceID, revocationCode string) *Authenticator {
	return &Authenticator{
		Serial:         serial,
		DeviceID:       deviceID,
		RevocationCode: revocationCode,
		locked:         true,
	}
}

// Unlock supplies the decrypted secret for an Authenticator built via
// Locked, and wires up its time synchronizer.
func (a *Authenticator) Unlock(doer transport.Doer, secretKey []byte, opts ...Option) {
	a.secretKey = secretKey
	a.locked = false
	a.syncer = timesync.New(doer, opts...)
}

// Load reconstructs an Authenticator from a §4.6-persisted string.
// BaseSecret is expected to be hex-encoded, as produced by Persist.
func Load(doer transport.Doer, persisted string, opts ...Option) (*Authenticator, error) {
	rec := authfile.Deserialize(persisted)
	if rec.BaseSecret == "" {
		return Locked(rec.Serial, rec.DeviceID, rec.RevocationCode), nil
	}

	secretKey, err := hex.DecodeString(rec.BaseSecret)
	if err != nil {
		return nil, fmt.Errorf("authenticator: failed to decode persisted secret: %w", err)
	}

	return New(doer, secretKey, rec.Serial, rec.DeviceID, rec.RevocationCode, opts...), nil
}

// Persist renders the Authenticator back to the §4.6 delimited-string
// contract.
func (a *Authenticator) Persist() string {
	return authfile.Serialize(authfile.Record{
		BaseSecret:     hex.EncodeToString(a.secretKey),
		Serial:         a.Serial,
		DeviceID:       a.DeviceID,
		RevocationCode: a.RevocationCode,
	})
}

// CalculateCode returns the current 5-character login code. If resync is
// true, a time sync is attempted first (subject to the synchronizer's
// cooldown); a failed resync does not prevent a code from being
// returned, since the synchronizer degrades to local time on failure.
func (a *Authenticator) CalculateCode(ctx context.Context, resync bool) (string, error) {
	if a.locked {
		return "", &EncryptedSecretData{}
	}
	if len(a.secretKey) == 0 {
		return "", NotEnrolled
	}

	if resync {
		_ = a.syncer.Sync(ctx)
	}

	code, err := totp.GenerateCode(a.secretKey, a.syncer.ServerTimeMs())
	if err != nil {
		if errors.Is(err, totp.ErrNotEnrolled) {
			return "", NotEnrolled
		}
		return "", err
	}
	return code, nil
}

// Sync forces a time sync, subject to the synchronizer's cooldown.
func (a *Authenticator) Sync(ctx context.Context) error {
	if a.locked {
		return &EncryptedSecretData{}
	}
	return a.syncer.Sync(ctx)
}

// SecretKeyHex returns the hex-encoded shared secret, or "" if locked or
// unenrolled. Callers should avoid logging this value.
func (a *Authenticator) SecretKeyHex() string {
	if a.locked || len(a.secretKey) == 0 {
		return ""
	}
	return hex.EncodeToString(a.secretKey)
}
