package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const paymentSuffixLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePaymentID returns PAY_<unix millis>_<8 uppercase alphanumerics>.
func GeneratePaymentID(now time.Time) string {
	return fmt.Sprintf("PAY_%d_%s", now.UnixMilli(), randomCode(paymentSuffixLength))
}

func randomCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(letterBytes)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			idx = big.NewInt(time.Now().UnixNano() % int64(len(letterBytes)))
		}
		b[i] = letterBytes[idx.Int64()]
	}
	return string(b)
}
