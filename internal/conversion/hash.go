package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SHA256Hex hashes a value after lowercasing and trimming it. Empty input
// yields an empty hash, matching what the ad platforms expect for absent PII.
func SHA256Hex(value string) string {
	if value == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizeEmail lowercases and trims an email. Dots in the local part are
// stripped for gmail/googlemail addresses, per the enhanced-conversions
// matching rules.
func NormalizeEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if strings.HasSuffix(normalized, "@gmail.com") || strings.HasSuffix(normalized, "@googlemail.com") {
		at := strings.LastIndex(normalized, "@")
		local := strings.ReplaceAll(normalized[:at], ".", "")
		normalized = local + normalized[at:]
	}
	return normalized
}

// HashEmail hashes a normalized email.
func HashEmail(email string) string {
	if email == "" {
		return ""
	}
	return SHA256Hex(NormalizeEmail(email))
}

// NormalizePhone strips non-digits and prefixes +55 when the country code is
// missing, yielding E.164.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	if normalized == "" {
		return ""
	}
	if !strings.HasPrefix(normalized, "55") {
		normalized = "55" + normalized
	}
	return "+" + normalized
}

// HashPhone hashes an E.164-normalized phone number.
func HashPhone(phone string) string {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return ""
	}
	return SHA256Hex(normalized)
}

// DeliveryProofHash is the delivery-proof fingerprint written to the ledgers:
// SHA-256 of transactionId|email|deliveredAt|quantity.
func DeliveryProofHash(transactionID, email, deliveredAt, quantity string) string {
	return SHA256Hex(fmt.Sprintf("%s|%s|%s|%s", transactionID, email, deliveredAt, quantity))
}
