package totp

import (
	"encoding/base64"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_KnownVector(t *testing.T) {
	secret, err := base64.StdEncoding.DecodeString("cnNyY3NyY3NyY3NyY3NyY3NyY3M=")
	require.NoError(t, err)
	require.Len(t, secret, 20)

	const tServerMs = 1234567890000
	require.EqualValues(t, 41152263, Interval(tServerMs))

	code, err := GenerateCode(secret, tServerMs)
	require.NoError(t, err)
	assert.Equal(t, "XHQN7", code)
}

func TestGenerateCode_StableWithinWindow(t *testing.T) {
	secret := []byte("0123456789abcdefghij")
	const base = 41152263 * IntervalMs

	a, err := GenerateCode(secret, base)
	require.NoError(t, err)
	b, err := GenerateCode(secret, base+29999)
	require.NoError(t, err)
	c, err := GenerateCode(secret, base+IntervalMs-1)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestGenerateCode_ChangesAcrossWindow(t *testing.T) {
	secret := []byte("0123456789abcdefghij")
	a, err := GenerateCode(secret, 0)
	require.NoError(t, err)
	b, err := GenerateCode(secret, IntervalMs)
	require.NoError(t, err)
	// Not guaranteed to differ for every key, but for this fixture it does.
	assert.NotEqual(t, a, b)
}

func TestGenerateCode_NotEnrolled(t *testing.T) {
	_, err := GenerateCode(nil, 1234567890000)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestGenerateCode_AlphabetCompleteness(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	key := make([]byte, 20)
	_, err := r.Read(key)
	require.NoError(t, err)

	const forbidden = "01AEILOSUZ"

	for i := 0; i < 10000; i++ {
		tServerMs := r.Int63n(1 << 40)
		code, err := GenerateCode(key, tServerMs)
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			assert.NotContains(t, forbidden, string(ch))
			assert.True(t, strings.ContainsRune(Alphabet, ch))
		}
	}
}
