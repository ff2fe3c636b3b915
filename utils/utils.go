package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// RandString picks length symbols uniformly from alphabet using crypto/rand
func RandString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}
