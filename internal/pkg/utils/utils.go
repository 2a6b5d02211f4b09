package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID generates a UUID v4 checkout session id.
func GenerateSessionID() string {
	return uuid.New().String()
}

// GenerateMerchantTxnID generates a random ten-digit merchant
// transaction id, the format the gateway SDK expects.
func GenerateMerchantTxnID() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(9000000000))
	return strconv.FormatInt(1000000000+n.Int64(), 10)
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ParseUintSafe converts a string to uint, returning 0 on any failure.
func ParseUintSafe(s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// FormatNumber adds comma separators to a number.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if neg {
		return "-" + result.String()
	}
	return result.String()
}
