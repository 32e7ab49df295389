// utils/validation.go
package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

func cleanPhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone checks the number against the numbering plan of region
// (numbers starting with + are checked against their own country code).
func ValidatePhone(phone, region string) bool {
	p, err := libphonenumber.Parse(cleanPhone(phone), region)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}

// NormalizePhone returns the E.164 form of phone, or the cleaned input when
// it cannot be parsed.
func NormalizePhone(phone, region string) string {
	cleaned := cleanPhone(phone)
	p, err := libphonenumber.Parse(cleaned, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return cleaned
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
