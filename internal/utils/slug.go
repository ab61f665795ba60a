package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomSuffix returns length random characters from [a-z0-9].
func RandomSuffix(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

// Slugify lower-cases name, strips accents and joins its letter and digit
// runs with '-'. Names with no letters or digits yield "contact".
func Slugify(name string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	if sb.Len() == 0 {
		return "contact"
	}
	return sb.String()
}
