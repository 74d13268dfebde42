package random

import (
	"crypto/rand"
	"math/big"
)

// Random is the source of randomness behind session and connection id
// generation. Injecting it keeps id assignment deterministic in tests.
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String draws length characters from alphabet
	String(length int, alphabet string) string
}

// CryptoRandom implements Random over crypto/rand. Session ids double as
// room admission tokens, so they must not be guessable.
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail in practice; 0 keeps callers total
		return 0
	}
	return int(result.Int64())
}

// String draws length characters from alphabet, each chosen independently
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(buf)
}
