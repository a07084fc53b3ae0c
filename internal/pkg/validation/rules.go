// Package validation registers the custom binding rules used by request DTOs.
package validation

import (
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule tags
const (
	// NotBlank rejects strings that are empty after trimming
	NotBlank = "notblank"
	// MaxRunes limits a string by characters rather than bytes
	MaxRunes = "maxrunes"
)

// Register installs the rules on a validator, typically gin's binding.Validator engine
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(NotBlank, notBlank); err != nil {
		return err
	}
	return v.RegisterValidation(MaxRunes, maxRunes)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func maxRunes(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(field.String())) <= limit
}
