package enroll

import "net/http"

// EnrollState is the mutable conversation between a caller and Driver
// across one enrollment attempt. The caller creates it with credentials,
// passes it to Driver.Enroll repeatedly, and inspects the Requires*
// flags and Error between calls to decide what to prompt the user for
// next. It is terminal once Success is true or the caller abandons it.
//
// All calls against one EnrollState must be serialized by the caller;
// nothing here is safe for concurrent use.
type EnrollState struct {
	// Inputs, written by the caller before/between calls.
	Username       string
	Password       string
	CaptchaText    string
	EmailAuthText  string
	ActivationCode string

	// Outputs/challenges, written by the driver.
	CaptchaID      string
	CaptchaURL     string
	EmailDomain    string
	SteamID        string
	OAuthToken     string
	RevocationCode string
	// SecretKey is the base16-encoded shared secret, populated only
	// once Success is true.
	SecretKey string
	Error     string

	// Flags.
	RequiresLogin      bool
	RequiresCaptcha    bool
	RequiresTwoFactor  bool
	RequiresEmailAuth  bool
	RequiresActivation bool
	Success            bool

	// Cookies is the per-enrollment cookie jar, created lazily on first
	// use and owned by EnrollState for the life of the conversation.
	Cookies http.CookieJar

	// Internal bookkeeping, not part of the public contract. deviceID,
	// serial and serverTimeDiffMs are readable through the DeviceID,
	// Serial and ServerTimeDiffMs accessors; secretKeyBytes and
	// finalizeRetries have no accessor.
	deviceID         string
	secretKeyBytes   []byte
	serial           string
	serverTimeDiffMs int64
	finalizeRetries  int
}

// NewEnrollState returns a fresh EnrollState for username/password.
// RequiresLogin starts true: no oauth token has been obtained yet.
func NewEnrollState(username, password string) *EnrollState {
	return &EnrollState{
		Username:      username,
		Password:      password,
		RequiresLogin: true,
	}
}

// Phase projects the boolean flags into a single tagged value, for
// callers who would rather switch on "what's next" than read five
// booleans. The flags remain the source of truth; Phase is a read-only
// view recomputed on every call.
type Phase int

const (
	PhaseLogin Phase = iota
	PhaseCaptcha
	PhaseEmailAuth
	PhaseTwoFactor
	PhaseActivation
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLogin:
		return "login"
	case PhaseCaptcha:
		return "captcha"
	case PhaseEmailAuth:
		return "email_auth"
	case PhaseTwoFactor:
		return "two_factor"
	case PhaseActivation:
		return "activation"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s *EnrollState) Phase() Phase {
	switch {
	case s.Success:
		return PhaseDone
	case s.RequiresCaptcha:
		return PhaseCaptcha
	case s.RequiresEmailAuth:
		return PhaseEmailAuth
	case s.RequiresTwoFactor:
		return PhaseTwoFactor
	case s.RequiresActivation:
		return PhaseActivation
	case s.Error != "":
		return PhaseFailed
	default:
		return PhaseLogin
	}
}

// Zero drops every sensitive field. Go strings are immutable, so this
// cannot overwrite the backing memory Password/OAuthToken/SecretKey once
// occupied the way a zero-on-drop buffer would; it releases the
// EnrollState's references so they become eligible for garbage
// collection instead. secretKeyBytes is a []byte and is wiped in place.
func (s *EnrollState) Zero() {
	s.Password = ""
	s.OAuthToken = ""
	s.SecretKey = ""
	for i := range s.secretKeyBytes {
		s.secretKeyBytes[i] = 0
	}
	s.secretKeyBytes = nil
}
