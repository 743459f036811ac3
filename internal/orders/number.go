package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	orderNumberPrefix = "ORD"
	tokenAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength       = 9
)

// GenerateOrderNumber returns a customer-facing order number of the form
// ORD-<unix millis>-<random base36 token>.
func GenerateOrderNumber() string {
	return fmt.Sprintf("%s-%d-%s", orderNumberPrefix, time.Now().UnixMilli(), randomToken(tokenLength))
}

func randomToken(length int) string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			out[i] = tokenAlphabet[0]
			continue
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return string(out)
}
