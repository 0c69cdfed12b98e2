// Package crypto provides the RSA, SHA1 and CSPRNG primitives the
// enrollment driver and device-id generator build on. Nothing here talks
// to the network or knows about Steam's wire format.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"fmt"
	"math/big"
)

// CryptoError wraps any RSA or RNG failure returned by this package; the
// underlying error is available through Unwrap.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto: %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

func newCryptoErrorf(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// EncryptPKCS1v15 RSA-encrypts plaintext under the public key described by
// modulusHex/exponentHex, both hex-encoded big-endian integers as returned
// by Steam's getrsakey endpoint.
func EncryptPKCS1v15(modulusHex, exponentHex string, plaintext []byte) ([]byte, error) {
	n, ok := new(big.Int).SetString(modulusHex, 16)
	if !ok {
		return nil, newCryptoErrorf("encrypt", fmt.Errorf("invalid modulus %q", modulusHex))
	}
	e, ok := new(big.Int).SetString(exponentHex, 16)
	if !ok {
		return nil, newCryptoErrorf("encrypt", fmt.Errorf("invalid exponent %q", exponentHex))
	}

	pub := &rsa.PublicKey{N: n, E: int(e.Int64())}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	if err != nil {
		return nil, newCryptoErrorf("encrypt", err)
	}
	return ciphertext, nil
}

// SHA1 computes the SHA1 digest of msg.
func SHA1(msg []byte) [20]byte {
	var out [20]byte
	sum := sha1.Sum(msg)
	copy(out[:], sum[:])
	return out
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, newCryptoErrorf("random", err)
	}
	return buf, nil
}
