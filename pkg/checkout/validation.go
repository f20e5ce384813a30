package checkout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

// ValidateEmail applies the loose shape check used by the shipping form.
func ValidateEmail(value string) bool {
	return emailRe.MatchString(strings.TrimSpace(value))
}

// NormalizeCardNumber strips the spaces shoppers type between digit groups.
func NormalizeCardNumber(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "")
}

// ValidateCardNumber runs the Luhn checksum over the card digits. Spaces are
// ignored; any other non-digit makes the number invalid.
func ValidateCardNumber(value string) bool {
	digits := NormalizeCardNumber(value)
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateExpiry checks an MM/YY expiry. A card expiring in the current month is still valid.
func ValidateExpiry(value string, now time.Time) bool {
	m := expiryRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	if year < currentYear {
		return false
	}
	if year == currentYear && month < currentMonth {
		return false
	}
	return true
}

// MaskCardNumber replaces every digit that is followed by at least four more
// digits with '*', keeping the last four visible.
func MaskCardNumber(value string) string {
	digits := NormalizeCardNumber(value)
	if len(digits) <= 4 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits))
	for i := 0; i < len(digits); i++ {
		if i < len(digits)-4 && digits[i] >= '0' && digits[i] <= '9' {
			b.WriteByte('*')
			continue
		}
		b.WriteByte(digits[i])
	}
	return b.String()
}
