// Package enroll drives the multi-step Steam mobile authenticator
// enrollment protocol: RSA-wrapped password login (with optional
// CAPTCHA/email/2FA challenges), OAuth token exchange, authenticator
// provisioning, and the finalize-activation retry loop.
package enroll

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/kavutra/steamguard/clock"
	"github.com/kavutra/steamguard/crypto"
	"github.com/kavutra/steamguard/internal/xlog"
	"github.com/kavutra/steamguard/steamid"
	"github.com/kavutra/steamguard/totp"
	"github.com/kavutra/steamguard/transport"
)

const (
	loginHomeURL                = "https://steamcommunity.com/login/home"
	getRSAKeyURL                = "https://steamcommunity.com/login/getrsakey"
	doLoginURL                  = "https://steamcommunity.com/mobilelogin/dologin/"
	presenceLogonURL            = "https://api.steampowered.com/ISteamWebUserPresenceOAuth/Logon/v0001"
	addAuthenticatorURL         = "https://api.steampowered.com/ITwoFactorService/AddAuthenticator/v0001"
	finalizeAddAuthenticatorURL = "https://api.steampowered.com/ITwoFactorService/FinalizeAddAuthenticator/v0001"
	sendEmailURL                = "https://api.steampowered.com/ITwoFactorService/SendEmail/v0001"

	captchaURLBase = "https://steamcommunity.com/public/captcha.php?gid="

	defaultCaptchaText  = "enter above characters"
	noCaptchaGID        = "-1"
	loginFriendlyName   = "#login_emailauth_friendlyname_mobile"
	oauthClientID       = "DE45CD61"
	oauthScope          = "read_profile write_profile read_client write_client"
	finalizeDriftStepMs = 30_000
	finalizeStartBackMs = 40_000
	finalizeMaxRetries  = 30
	statusInvalidCode   = 89
)

// Driver runs the enrollment state machine described in §4.5. It is
// re-entrant: Enroll may be called repeatedly on the same EnrollState as
// the caller supplies additional inputs between calls.
type Driver struct {
	doer  transport.Doer
	clock clock.Clock
	log   *xlog.Logger
}

// NewDriver returns a Driver that issues requests through doer.
func NewDriver(doer transport.Doer, opts ...Option) *Driver {
	d := &Driver{
		doer:  doer,
		clock: clock.System{},
		log:   xlog.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enroll attempts maximum forward progress on state and reports whether
// enrollment is now fully complete. Recoverable protocol states
// (CAPTCHA/email/2FA required, bad activation code, retry exhaustion)
// are reported via state.Requires*/state.Error, not as errors. Transport
// and cryptographic failures, a /login/home page that is not the mobile
// login shell, an unsuccessful getrsakey reply and unparseable responses
// are returned as errors, as *InvalidEnrollResponse.
func (d *Driver) Enroll(ctx context.Context, state *EnrollState) (bool, error) {
	if state.Cookies == nil {
		jar, err := transport.NewCookieJar()
		if err != nil {
			return false, invalidResponsef(err, "failed to create cookie jar")
		}
		state.Cookies = jar
	}

	if state.OAuthToken == "" {
		ok, err := d.login(ctx, state)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if !state.RequiresActivation {
		if err := d.add(ctx, state); err != nil {
			return false, err
		}
		// add() either sets requires_activation=true (waiting on the
		// caller's activation code) or requires_login=true (the
		// caller must re-authenticate); it never finalizes in the
		// same call.
		return false, nil
	}

	if state.ActivationCode == "" {
		return false, nil
	}

	return d.finalize(ctx, state)
}

func (d *Driver) do(ctx context.Context, method, rawURL string, form url.Values, state *EnrollState) (string, error) {
	d.log.DebugRequest(method, rawURL, form)
	body, err := d.doer.Do(ctx, method, rawURL, form, state.Cookies)
	d.log.DebugResponse(method, rawURL, len(body), err)
	return body, err
}

// fireAndForget issues a request whose result the protocol doesn't
// check (the presence handshake and the activation emails).
func (d *Driver) fireAndForget(ctx context.Context, method, rawURL string, form url.Values, state *EnrollState) {
	_, _ = d.do(ctx, method, rawURL, form, state)
}

type getRSAKeyResponse struct {
	Success      bool   `json:"success"`
	SteamID      string `json:"steamid"`
	PublickeyMod string `json:"publickey_mod"`
	PublickeyExp string `json:"publickey_exp"`
	Timestamp    string `json:"timestamp"`
}

type doLoginResponse struct {
	Success           bool   `json:"success"`
	LoginComplete     bool   `json:"login_complete"`
	RequiresTwoFactor bool   `json:"requires_twofactor"`
	CaptchaNeeded     bool   `json:"captcha_needed"`
	CaptchaGID        string `json:"captcha_gid"`
	EmailAuthNeeded   bool   `json:"emailauth_needed"`
	EmailDomain       string `json:"emaildomain"`
	Message           string `json:"message"`
	OAuth             string `json:"oauth"`
}

type oauthPayload struct {
	OAuthToken string `json:"oauth_token"`
}

// login runs the RSA-login sub-protocol (§4.5.1). It returns true only
// once state.OAuthToken has been populated.
func (d *Driver) login(ctx context.Context, state *EnrollState) (bool, error) {
	homeBody, err := d.do(ctx, http.MethodGet, loginHomeURL, url.Values{"goto": {"0"}}, state)
	if err != nil {
		return false, invalidResponsef(err, "failed to establish mobile login session")
	}
	if !transport.LooksLikeMobileLoginShell(homeBody) {
		return false, invalidResponsef(nil, "Steam did not return the mobile login page; it may be down for maintenance")
	}

	rsaBody, err := d.do(ctx, http.MethodPost, getRSAKeyURL, url.Values{"username": {state.Username}}, state)
	if err != nil {
		return false, invalidResponsef(err, "failed to fetch RSA key")
	}

	var rsaResp getRSAKeyResponse
	if err := json.Unmarshal([]byte(rsaBody), &rsaResp); err != nil {
		return false, invalidResponsef(err, "failed to parse RSA key response")
	}
	if !rsaResp.Success {
		return false, invalidResponsef(nil, "Cannot get steam information for user: %s", state.Username)
	}
	state.SteamID = rsaResp.SteamID

	encryptedPassword, err := crypto.EncryptPKCS1v15(rsaResp.PublickeyMod, rsaResp.PublickeyExp, []byte(state.Password))
	if err != nil {
		return false, invalidResponsef(err, "failed to encrypt password")
	}

	emailSteamID := lo.Ternary(state.EmailAuthText != "", state.SteamID, "")
	captchaGID := lo.Ternary(state.CaptchaID != "", state.CaptchaID, noCaptchaGID)
	captchaText := lo.Ternary(state.CaptchaText != "", state.CaptchaText, defaultCaptchaText)

	form := url.Values{
		"password":          {base64.StdEncoding.EncodeToString(encryptedPassword)},
		"username":          {state.Username},
		"twofactorcode":     {""},
		"emailauth":         {state.EmailAuthText},
		"loginfriendlyname": {loginFriendlyName},
		"captchagid":        {captchaGID},
		"captcha_text":      {captchaText},
		"emailsteamid":      {emailSteamID},
		"rsatimestamp":      {rsaResp.Timestamp},
		"remember_login":    {"false"},
		"oauth_client_id":   {oauthClientID},
		"oauth_scope":       {oauthScope},
		"donotcache":        {strconv.FormatInt(d.clock.Now().UnixMilli(), 10)},
	}

	loginBody, err := d.do(ctx, http.MethodPost, doLoginURL, form, state)
	if err != nil {
		return false, invalidResponsef(err, "failed to submit login")
	}

	var loginResp doLoginResponse
	if err := json.Unmarshal([]byte(loginBody), &loginResp); err != nil {
		return false, invalidResponsef(err, "failed to parse login response")
	}

	applyChallengeFlags(state, loginResp)

	if !loginResp.LoginComplete || loginResp.OAuth == "" {
		state.Error = lo.Ternary(loginResp.Message != "", loginResp.Message, "No OAuth token in response")
		return false, nil
	}

	var oauth oauthPayload
	if err := json.Unmarshal([]byte(loginResp.OAuth), &oauth); err != nil {
		return false, invalidResponsef(err, "failed to parse oauth payload")
	}

	state.OAuthToken = oauth.OAuthToken
	state.RequiresLogin = false
	state.Error = ""
	return true, nil
}

func applyChallengeFlags(state *EnrollState, resp doLoginResponse) {
	if resp.CaptchaNeeded {
		state.RequiresCaptcha = true
		state.CaptchaID = resp.CaptchaGID
		state.CaptchaURL = captchaURLBase + resp.CaptchaGID
	} else {
		state.RequiresCaptcha = false
		state.CaptchaID = ""
		state.CaptchaURL = ""
	}

	state.RequiresEmailAuth = resp.EmailAuthNeeded
	emailDomain := mo.None[string]()
	if resp.EmailAuthNeeded && resp.EmailDomain != "" {
		emailDomain = mo.Some(resp.EmailDomain)
	}
	state.EmailDomain = emailDomain.OrElse("")

	state.RequiresTwoFactor = resp.RequiresTwoFactor
}

type addAuthenticatorResponse struct {
	Response struct {
		Status         int    `json:"status"`
		SharedSecret   string `json:"shared_secret"`
		SerialNumber   string `json:"serial_number"`
		RevocationCode string `json:"revocation_code"`
		URI            string `json:"uri"`
		ServerTime     int64  `json:"server_time,string"`
		TokenGID       string `json:"token_gid"`
	} `json:"response"`
}

// add requests a new authenticator (§4.5.2).
func (d *Driver) add(ctx context.Context, state *EnrollState) error {
	d.fireAndForget(ctx, http.MethodPost, presenceLogonURL, url.Values{"access_token": {state.OAuthToken}}, state)

	deviceID, err := steamid.NewDeviceID()
	if err != nil {
		return invalidResponsef(err, "failed to generate device id")
	}
	state.deviceID = deviceID

	body, err := d.do(ctx, http.MethodPost, addAuthenticatorURL, url.Values{
		"access_token":       {state.OAuthToken},
		"steamid":            {state.SteamID},
		"authenticator_type": {"1"},
		"device_identifier":  {deviceID},
	}, state)
	if err != nil {
		return invalidResponsef(err, "failed to add authenticator")
	}

	var resp addAuthenticatorResponse
	unmarshalErr := json.Unmarshal([]byte(body), &resp)
	if unmarshalErr != nil || resp.Response.RevocationCode == "" {
		state.OAuthToken = ""
		state.RequiresLogin = true
		state.Cookies = nil
		state.Error = fmt.Sprintf("Invalid response from Steam: %s", body)
		return nil
	}

	secretKeyBytes, err := base64.StdEncoding.DecodeString(resp.Response.SharedSecret)
	if err != nil {
		return invalidResponsef(err, "failed to decode shared secret")
	}

	state.secretKeyBytes = secretKeyBytes
	state.serial = resp.Response.SerialNumber
	state.RevocationCode = resp.Response.RevocationCode
	state.serverTimeDiffMs = resp.Response.ServerTime*1000 - d.clock.Now().UnixMilli()

	d.fireAndForget(ctx, http.MethodPost, sendEmailURL, url.Values{
		"access_token":       {state.OAuthToken},
		"steamid":            {state.SteamID},
		"email_type":         {"1"},
		"include_activation": {"1"},
	}, state)

	state.RequiresActivation = true
	return nil
}

type finalizeAddAuthenticatorResponse struct {
	Response struct {
		Status     int   `json:"status"`
		Success    bool  `json:"success"`
		WantMore   bool  `json:"want_more"`
		ServerTime int64 `json:"server_time,string"`
	} `json:"response"`
}

// finalize runs the activation retry loop (§4.5.3).
func (d *Driver) finalize(ctx context.Context, state *EnrollState) (bool, error) {
	state.serverTimeDiffMs -= finalizeStartBackMs
	state.finalizeRetries = 0

	for state.RequiresActivation && state.finalizeRetries < finalizeMaxRetries {
		serverTimeMs := d.clock.Now().UnixMilli() + state.serverTimeDiffMs

		code, err := totp.GenerateCode(state.secretKeyBytes, serverTimeMs)
		if err != nil {
			return false, invalidResponsef(err, "failed to generate activation code")
		}

		form := url.Values{
			"access_token":       {state.OAuthToken},
			"steamid":            {state.SteamID},
			"activation_code":    {state.ActivationCode},
			"authenticator_code": {code},
			"authenticator_time": {strconv.FormatInt(serverTimeMs/1000, 10)},
		}

		body, err := d.do(ctx, http.MethodPost, finalizeAddAuthenticatorURL, form, state)
		if err != nil {
			return false, invalidResponsef(err, "failed to finalize authenticator")
		}

		var resp finalizeAddAuthenticatorResponse
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			return false, invalidResponsef(err, "failed to parse finalize response")
		}

		if resp.Response.Status == statusInvalidCode {
			state.Error = "Invalid activation code"
			return false, nil
		}

		if resp.Response.ServerTime != 0 {
			state.serverTimeDiffMs = resp.Response.ServerTime*1000 - d.clock.Now().UnixMilli()
		}

		if resp.Response.Success {
			if resp.Response.WantMore {
				state.serverTimeDiffMs += finalizeDriftStepMs
				state.finalizeRetries++
				continue
			}
			state.RequiresActivation = false
			break
		}

		state.serverTimeDiffMs += finalizeDriftStepMs
		state.finalizeRetries++
	}

	if state.RequiresActivation {
		state.Error = "There was a problem activating. There might be an issue with the Steam servers. Please try again later."
		return false, nil
	}

	state.Success = true
	state.SecretKey = hex.EncodeToString(state.secretKeyBytes)

	d.fireAndForget(ctx, http.MethodPost, sendEmailURL, url.Values{
		"access_token": {state.OAuthToken},
		"steamid":      {state.SteamID},
		"email_type":   {"2"},
	}, state)

	return true, nil
}

// DeviceID returns the device identifier generated during the ADD step,
// or "" before it has run.
func (s *EnrollState) DeviceID() string { return s.deviceID }

// Serial returns the authenticator serial issued by Steam, or "" before
// the ADD step has run.
func (s *EnrollState) Serial() string { return s.serial }

// ServerTimeDiffMs returns the enrollment-in-progress server time
// offset, refreshed whenever a response carries a server_time field.
// Exported so callers (and tests) can assert on drift correction
// without reaching into driver internals.
func (s *EnrollState) ServerTimeDiffMs() int64 { return s.serverTimeDiffMs }
