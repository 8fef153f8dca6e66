package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	flightNumberPattern = regexp.MustCompile(`^[A-Z]{2}-\d{3}$`)
	gatePattern         = regexp.MustCompile(`^[A-Z]\d{1,2}$`)
	phonePattern        = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailPattern        = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "flightnumber", matches(flightNumberPattern))
	mustRegister(v, "gate", matches(gatePattern))
	mustRegister(v, "phone", matches(phonePattern))
	mustRegister(v, "email_addr", matches(emailPattern))
	mustRegister(v, "bcryptlen", fitsBcrypt)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func fitsBcrypt(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// fieldMessages maps "field.tag" to the message reported for that failure.
var fieldMessages = map[string]string{
	"number.flightnumber":  "invalid flight number format, expected AA-123",
	"origin.notblank":      "origin city cannot be empty",
	"destination.notblank": "destination city cannot be empty",
	"gate.gate":            "invalid gate format, expected A1 or A12",
	"distance_miles.gt":    "distance must be positive",
	"name.notblank":        "name cannot be empty",
	"email.email_addr":     "invalid email format",
	"password.min":         "password must be at least 8 characters",
	"password.bcryptlen":   "password must be at most 72 bytes",
	"phone.phone":          "invalid phone number",
	"age.gt":               "age must be between 1-120",
	"age.lte":              "age must be between 1-120",
}

// validateStruct runs the struct tags and converts the first failure into a
// validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ValidationError("%v", err)
	}

	fe := verrs[0]
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return ValidationError("%s", msg)
	}
	return ValidationError("%s failed %s validation", fe.Field(), fe.Tag())
}

func IsValidFlightNumber(number string) bool {
	return flightNumberPattern.MatchString(number)
}

// NormalizeFlightNumber upper-cases and trims a flight number so lookups
// match regardless of how the caller typed it.
func NormalizeFlightNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
