package validators

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateHexLen checks that a string is a hex dump of exactly param bytes.
// Whitespace between byte pairs is allowed.
func ValidateHexLen(fl validator.FieldLevel) bool {
	return checkHex(fl, func(got, want int) bool { return got == want })
}

// ValidateHexMin checks that a string is a hex dump of at least param bytes
func ValidateHexMin(fl validator.FieldLevel) bool {
	return checkHex(fl, func(got, want int) bool { return got >= want })
}

func checkHex(fl validator.FieldLevel, cmp func(got, want int) bool) bool {
	value := fl.Field().String()

	// don't validate empty value
	if value == "" {
		return true
	}

	want, err := strconv.Atoi(fl.Param())
	if err != nil || want < 0 {
		return false
	}

	decoded, err := hex.DecodeString(StripHex(value))
	if err != nil {
		return false
	}

	return cmp(len(decoded), want)
}

func StripHex(value string) string {
	return strings.Join(strings.Fields(value), "")
}
