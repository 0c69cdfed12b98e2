// Package timesync keeps a code generator aligned with Steam's clock.
// Steam's servers, not the local machine, are authoritative for the
// 30-second TOTP window, so every authenticator carries a signed
// millisecond offset that QueryTime (or any response that happens to
// carry a server_time field) refreshes.
package timesync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kavutra/steamguard/clock"
	"github.com/kavutra/steamguard/transport"
)

const queryTimeURL = "https://api.steampowered.com/ITwoFactorService/QueryTime/v0001"

// DefaultCooldown is how long a failed Sync suppresses further network
// calls, per authenticator.
const DefaultCooldown = 5 * time.Minute

// Syncer maintains server_time_diff_ms for one authenticator. The zero
// value is not usable; construct with New.
type Syncer struct {
	doer     transport.Doer
	clock    clock.Clock
	cooldown time.Duration

	mu                 sync.Mutex
	serverTimeDiffMs   int64
	lastServerTimeTick int64
	cooldownUntilMs    int64
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(s *Syncer) { s.clock = c }
}

// WithCooldown overrides the failure cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(s *Syncer) { s.cooldown = d }
}

// New returns a Syncer that issues QueryTime requests through doer.
func New(doer transport.Doer, opts ...Option) *Syncer {
	s := &Syncer{
		doer:     doer,
		clock:    clock.System{},
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync forces a time sync with Steam, unless a prior failure's cooldown
// is still active, in which case it is a silent no-op.
func (s *Syncer) Sync(ctx context.Context) error {
	nowMs := clock.NowMs(s.clock)

	s.mu.Lock()
	if nowMs < s.cooldownUntilMs {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	body, err := s.doer.Do(ctx, http.MethodPost, queryTimeURL, url.Values{}, nil)
	if err != nil {
		s.armCooldown(nowMs)
		return err
	}

	var parsed struct {
		Response struct {
			ServerTime string `json:"server_time"`
		} `json:"response"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		s.armCooldown(nowMs)
		return err
	}

	serverTimeSec, err := strconv.ParseInt(parsed.Response.ServerTime, 10, 64)
	if err != nil {
		s.armCooldown(nowMs)
		return err
	}

	s.mu.Lock()
	s.serverTimeDiffMs = serverTimeSec*1000 - nowMs
	s.lastServerTimeTick = nowMs
	s.cooldownUntilMs = 0
	s.mu.Unlock()

	return nil
}

func (s *Syncer) armCooldown(nowMs int64) {
	s.mu.Lock()
	s.serverTimeDiffMs = 0
	s.cooldownUntilMs = nowMs + s.cooldown.Milliseconds()
	s.mu.Unlock()
}

// ServerTimeMs returns the synchronizer's best estimate of Steam's
// current clock, in milliseconds since the epoch.
func (s *Syncer) ServerTimeMs() int64 {
	s.mu.Lock()
	diff := s.serverTimeDiffMs
	s.mu.Unlock()
	return clock.NowMs(s.clock) + diff
}

// DiffMs returns the current server_time_diff_ms.
func (s *Syncer) DiffMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverTimeDiffMs
}

// AddDiffMs adjusts server_time_diff_ms by delta, for drift corrections
// such as §4.5.3's -40s start and +30s per rejected attempt. The enroll
// package's finalize loop keeps its own offset on EnrollState and does
// not call this.
func (s *Syncer) AddDiffMs(deltaMs int64) {
	s.mu.Lock()
	s.serverTimeDiffMs += deltaMs
	s.mu.Unlock()
}

// UpdateFromServerTimeSeconds unconditionally refreshes the diff from an
// authoritative server_time field carried on an unrelated response (e.g.
// AddAuthenticator or FinalizeAddAuthenticator), independent of the
// QueryTime cooldown.
func (s *Syncer) UpdateFromServerTimeSeconds(serverTimeSec int64) {
	nowMs := clock.NowMs(s.clock)
	s.mu.Lock()
	s.serverTimeDiffMs = serverTimeSec*1000 - nowMs
	s.lastServerTimeTick = nowMs
	s.mu.Unlock()
}

// LastServerTimeTick returns the local clock reading (ms) at which
// server_time_diff_ms was last established. Exported so a caller
// embedding this package can judge staleness of the offset on its own
// terms instead of this package imposing a policy.
func (s *Syncer) LastServerTimeTick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastServerTimeTick
}
