package authfile

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Checkpoint is a resumable snapshot of an in-flight enrollment. It is
// additive: the required persisted-record contract is Record above, and
// nothing in this module requires a Checkpoint to exist. It carries the
// fields below so a caller can rebuild an EnrollState after a process
// restart while waiting on a CAPTCHA answer or an email code; the next
// Enroll call then runs the login step again with the answer. The enroll
// package has no way to load the ADD step's shared secret or time offset
// back into an EnrollState, so a Checkpoint taken while waiting on an
// activation code does not let FINALIZE run after a restart.
//
// Password is deliberately absent: it must never be persisted.
type Checkpoint struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	SteamID            string `json:"steam_id,omitempty"`
	OAuthToken         string `json:"oauth_token,omitempty"`
	CaptchaID          string `json:"captcha_id,omitempty"`
	EmailDomain        string `json:"email_domain,omitempty"`
	RequiresCaptcha    bool   `json:"requires_captcha"`
	RequiresEmailAuth  bool   `json:"requires_email_auth"`
	RequiresTwoFactor  bool   `json:"requires_2fa"`
	RequiresActivation bool   `json:"requires_activation"`
	SecretKeyHex       string `json:"secret_key_hex,omitempty"`
	Serial             string `json:"serial,omitempty"`
	DeviceID           string `json:"device_id,omitempty"`
	RevocationCode     string `json:"revocation_code,omitempty"`
}

// NewCheckpointID returns a fresh correlation ID for a Checkpoint, so a
// resumed enrollment can be traced through logs without ever replaying
// the secret fields it carries.
func NewCheckpointID() string {
	return uuid.NewString()
}

// EncodeCheckpoint serializes a Checkpoint to JSON.
func EncodeCheckpoint(c Checkpoint) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeCheckpoint parses a Checkpoint previously produced by EncodeCheckpoint.
func DecodeCheckpoint(s string) (Checkpoint, error) {
	var c Checkpoint
	if s == "" {
		return c, nil
	}
	err := json.Unmarshal([]byte(s), &c)
	return c, err
}
