package domain

import (
	"strconv"
	"strings"
)

// ValidateAddress reports whether s is a canonical dotted-quad IPv4 address:
// exactly four dot-separated components, each the shortest decimal
// rendering of an integer in [0,255]. Leading zeros, signs, whitespace and
// exponent forms are rejected.
func ValidateAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		if strconv.Itoa(n) != part {
			return false
		}
	}

	return true
}

// NormalizeAddressInput trims what a user typically pastes around an address.
func NormalizeAddressInput(raw string) string {
	return strings.TrimSpace(raw)
}
