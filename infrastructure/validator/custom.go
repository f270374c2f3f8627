package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var regionCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

func validateRegionCode(fl validator.FieldLevel) bool {
	return regionCodeRegex.MatchString(fl.Field().String())
}

func validateUsageIntent(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "editorial", "commercial", "ai_training", "deepfake":
		return true
	}
	return false
}

func validateNameWithSpecialChars(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	regex := regexp.MustCompile(`^[\p{L}0-9 .'\-]+$`)
	return regex.MatchString(name)
}
