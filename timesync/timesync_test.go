package timesync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.Clock.
type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

// fakeDoer returns canned responses/errors in sequence and counts calls.
type fakeDoer struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeDoer) Do(ctx context.Context, method, rawURL string, form url.Values, jar http.CookieJar) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("fakeDoer: no canned response for call %d", i)
}

func TestSync_Success(t *testing.T) {
	fc := &fakeClock{t: time.UnixMilli(1_000_000)}
	doer := &fakeDoer{responses: []string{`{"response":{"server_time":"1001"}}`}}
	s := New(doer, WithClock(fc))

	err := s.Sync(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1001*1000-1_000_000, s.DiffMs())
	assert.Equal(t, 1, doer.calls)
}

func TestSync_CooldownSuppressesRetry(t *testing.T) {
	fc := &fakeClock{t: time.UnixMilli(1_000_000)}
	doer := &fakeDoer{errs: []error{fmt.Errorf("boom")}}
	s := New(doer, WithClock(fc), WithCooldown(5*time.Minute))

	err := s.Sync(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 0, s.DiffMs())

	fc.Advance(time.Minute)
	err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, doer.calls, "second sync within cooldown must not hit the network")
}

func TestSync_CooldownExpires(t *testing.T) {
	fc := &fakeClock{t: time.UnixMilli(1_000_000)}
	doer := &fakeDoer{
		errs:      []error{fmt.Errorf("boom")},
		responses: []string{"", `{"response":{"server_time":"1001"}}`},
	}
	s := New(doer, WithClock(fc), WithCooldown(time.Minute))

	require.Error(t, s.Sync(context.Background()))
	fc.Advance(2 * time.Minute)
	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, 2, doer.calls)
}

func TestAddDiffMs_AndServerTimeMs(t *testing.T) {
	fc := &fakeClock{t: time.UnixMilli(1_000_000)}
	s := New(&fakeDoer{}, WithClock(fc))

	s.AddDiffMs(-40_000)
	assert.EqualValues(t, -40_000, s.DiffMs())
	assert.EqualValues(t, 960_000, s.ServerTimeMs())

	s.AddDiffMs(30_000)
	assert.EqualValues(t, -10_000, s.DiffMs())
}

func TestUpdateFromServerTimeSeconds_BypassesCooldown(t *testing.T) {
	fc := &fakeClock{t: time.UnixMilli(1_000_000)}
	doer := &fakeDoer{errs: []error{fmt.Errorf("boom")}}
	s := New(doer, WithClock(fc))

	require.Error(t, s.Sync(context.Background()))
	s.UpdateFromServerTimeSeconds(2000)
	assert.EqualValues(t, 2000*1000-1_000_000, s.DiffMs())
}
