package order

import (
	"crypto/rand"
	"math/big"
)

const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewNumber returns a random 12-character public order number.
func NewNumber() string {
	b := make([]byte, 12)
	max := big.NewInt(int64(len(numberAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = numberAlphabet[n.Int64()]
	}
	return string(b)
}
