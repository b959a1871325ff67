package users

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"lottery_system/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern    = regexp.MustCompile(`^[0-9]{4}-[0-9]{3}-[0-9]{4}$`)
	dobPattern      = regexp.MustCompile(`^[0-9]{2}/[0-9]{2}/[0-9]{4}$`)
	postcodePattern = regexp.MustCompile(`^([A-Z][0-9]|[A-Z][0-9]{2}|[A-Z]{2}[0-9]) [0-9][A-Z]{2}$`)
	domainPattern   = regexp.MustCompile(`^[a-z0-9]+$`)
)

const (
	nameForbidden      = `*?!'^+%&/()=}][{$#@<>`
	emailLocalSpecials = "!#$%&'*+-/=?^_`{|}~."
	passwordMinLength  = 6
	passwordMaxLength  = 12
	dateOfBirthLayout  = "02/01/2006"
)

// messages shown for each failing rule, keyed by struct field
var fieldMessages = map[string]string{
	"Email":           "Email address invalid",
	"Firstname":       "First name invalid",
	"Lastname":        "Last name invalid",
	"Phone":           "Phone number invalid (XXXX-XXX-XXXX)",
	"Password":        "Password invalid, must be between 6-12 characters long, contain uppercase, lowercase, number and special character",
	"ConfirmPassword": "Passwords don't match",
	"DateOfBirth":     "Date of birth invalid (DD/MM/YYYY)",
	"Postcode":        "Postcode invalid (e.g. NE4 5TG)",
	"Current":         "Current password required",
	"New":             "Password invalid, must be between 6-12 characters long, contain uppercase, lowercase, number and special character",
	"Confirm":         "Passwords don't match",
}

// newValidator registers the account field rules on a validator instance
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("lottery_email", func(fl validator.FieldLevel) bool { return ValidEmail(fl.Field().String()) })
	_ = v.RegisterValidation("lottery_name", func(fl validator.FieldLevel) bool { return ValidName(fl.Field().String()) })
	_ = v.RegisterValidation("lottery_phone", func(fl validator.FieldLevel) bool { return phonePattern.MatchString(fl.Field().String()) })
	_ = v.RegisterValidation("lottery_password", func(fl validator.FieldLevel) bool { return ValidPassword(fl.Field().String()) })
	_ = v.RegisterValidation("lottery_dob", func(fl validator.FieldLevel) bool { return ValidDateOfBirth(fl.Field().String()) })
	_ = v.RegisterValidation("lottery_postcode", func(fl validator.FieldLevel) bool { return postcodePattern.MatchString(fl.Field().String()) })
	return v
}

// toValidationError converts the first validator failure into a domain.ValidationError
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = field + " invalid"
	}
	return domain.NewValidationError(strings.ToLower(field), msg)
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail checks an already normalised address
func ValidEmail(email string) bool {
	if email == "" || strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host == "" || strings.Contains(host, "@") {
		return false
	}
	for _, r := range local {
		if !isWordRune(r) && !strings.ContainsRune(emailLocalSpecials, r) {
			return false
		}
	}
	if badDots(local) || badDots(host) {
		return false
	}
	if !strings.ContainsAny(host, "abcdefghijklmnopqrstuvwxyz") {
		return false
	}
	if strings.HasPrefix(host, "-") || strings.HasSuffix(host, "-") {
		return false
	}
	return domainPattern.MatchString(strings.NewReplacer(".", "", "-", "").Replace(host))
}

// ValidName rejects names containing special characters
func ValidName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, nameForbidden)
}

// ValidPassword enforces the password complexity policy
func ValidPassword(password string) bool {
	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		return false
	}
	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		default:
			special = true
		}
	}
	return digit && lower && upper && special
}

// ValidDateOfBirth accepts DD/MM/YYYY calendar dates
func ValidDateOfBirth(dob string) bool {
	if !dobPattern.MatchString(dob) {
		return false
	}
	_, err := time.Parse(dateOfBirthLayout, dob)
	return err == nil
}

func isWordRune(r rune) bool {
	return r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func badDots(s string) bool {
	return strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..")
}
