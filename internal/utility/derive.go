package utility

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DeriveFullName joins first and last name, skipping empty parts.
func DeriveFullName(first, last string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(first+" "+last), " "))
}

// GenerateRefCode builds PREFIX-YYYYMMDD-XXXXXX from date and six symbols drawn from random.
// The same reader bytes always give the same code.
func GenerateRefCode(prefix string, date time.Time, random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}
	buf := make([]byte, 6)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, date.UTC().Format("20060102"), suffix), nil
}
