package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptPKCS1v15_RoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	modHex := hex.EncodeToString(priv.PublicKey.N.Bytes())
	expHex := hex.EncodeToString([]byte{0x01, 0x00, 0x01}) // 65537

	plaintext := []byte("hunter2")
	ciphertext, err := EncryptPKCS1v15(modHex, expHex, plaintext)
	require.NoError(t, err)
	assert.NotEmpty(t, ciphertext)

	decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptPKCS1v15_MalformedKey(t *testing.T) {
	_, err := EncryptPKCS1v15("not-hex!!", "010001", []byte("x"))
	require.Error(t, err)
	var cryptoErr *CryptoError
	assert.ErrorAs(t, err, &cryptoErr)
}

func TestSHA1_KnownVector(t *testing.T) {
	sum := SHA1([]byte("abc"))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", hex.EncodeToString(sum[:]))
}

func TestRandomBytes_LengthAndDistinct(t *testing.T) {
	a, err := RandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := RandomBytes(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
