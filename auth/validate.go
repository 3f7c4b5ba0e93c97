package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/shortlink-go/apperror"
)

// Password complexity policy for new passwords.
const (
	passwordMinLen = 8
	passwordMaxLen = 26
	// bcrypt only accepts inputs up to 72 bytes, which 26 multi-byte runes can exceed.
	passwordMaxBytes = 72
)

// Validator checks request bodies against their `validate` tags and reports the
// first violation only, as a ValidationError naming the offending field.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the password policy registered as the
// `password` tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their label so messages read `"Username" is required`.
	v.RegisterTagNameFunc(fieldLabel)

	// Registering a static func on a fresh instance cannot fail.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordPolicyViolation(fl.Field().String()) == ""
	})

	return &Validator{v: v}
}

// Validate returns nil or a ValidationError for the first failing field, in the
// order the fields are declared.
func (v *Validator) Validate(req any) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewValidationError(MsgInvalidBody, err)
	}
	return apperror.NewValidationError(message(verrs[0]), err)
}

// message renders a field error in the same wording the web client already shows.
func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", label)
	case "min":
		if value, ok := fe.Value().(string); ok && value == "" {
			// Only reachable through optional fields sent as "".
			return fmt.Sprintf("%q is not allowed to be empty", label)
		}
		return fmt.Sprintf("%q length must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", label, fe.Param())
	case "email":
		return fmt.Sprintf("%q must be a valid email", label)
	case "password":
		value, _ := fe.Value().(string)
		return fmt.Sprintf("%q %s", label, passwordPolicyViolation(value))
	default:
		return fmt.Sprintf("%q is invalid", label)
	}
}

// passwordPolicyViolation returns the first rule the password breaks, or "".
// Character classes are ASCII; anything that is not an ASCII letter or digit
// counts as a symbol.
func passwordPolicyViolation(pw string) string {
	n := len([]rune(pw))
	if n < passwordMinLen {
		return fmt.Sprintf("should be at least %d characters long", passwordMinLen)
	}
	if n > passwordMaxLen {
		return fmt.Sprintf("should not be longer than %d characters", passwordMaxLen)
	}
	if len(pw) > passwordMaxBytes {
		return fmt.Sprintf("should not be longer than %d bytes", passwordMaxBytes)
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case !lower:
		return "should contain at least 1 lower-cased letter"
	case !upper:
		return "should contain at least 1 upper-cased letter"
	case !digit:
		return "should contain at least 1 number"
	case !symbol:
		return "should contain at least 1 symbol"
	}
	return ""
}

// fieldLabel prefers the `label` tag, then the JSON name, then the Go name.
func fieldLabel(f reflect.StructField) string {
	if label := f.Tag.Get("label"); label != "" {
		return label
	}
	if name := jsonName(f); name != "" {
		return name
	}
	return f.Name
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// labelForJSONField maps a JSON key of dst's struct type to its message label.
// Unknown keys are returned unchanged.
func labelForJSONField(dst any, key string) string {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return key
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if jsonName(f) == key {
			return fieldLabel(f)
		}
	}
	return key
}
