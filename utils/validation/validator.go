package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"golang.org/x/net/html"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]+$`)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with the app's custom tags registered
func NewValidator() *Validator {
	v := validator.New()
	// role: must be one of the known account roles
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	})
	// payment_status: must be one of the payment lifecycle states
	_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		return model.PaymentStatus(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return fieldErrors(FormatValidationErrors(validationErrs))
		}
		return err
	}
	return nil
}

// fieldErrors renders per-field messages as a single stable string
type fieldErrors map[string]string

// Fields exposes the messages keyed by lower-cased field name
func (f fieldErrors) Fields() map[string]string { return f }

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, field := range sortedKeys(f) {
		parts = append(parts, f[field])
	}
	return strings.Join(parts, "; ")
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errs[field] = fmt.Sprintf("%s is required", e.Field())
			case "email":
				errs[field] = "Invalid email format"
			case "min":
				errs[field] = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
			case "max":
				errs[field] = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
			case "gte":
				errs[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				errs[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "role":
				errs[field] = "Role must be one of student, trainer, manager"
			case "payment_status":
				errs[field] = "Status must be one of pending, completed, failed, refunded"
			default:
				errs[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errs
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) (bool, []string) {
	problems := []string{}

	if len(password) < auth.MinPasswordLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordLength))
	}

	hasLetter := strings.IndexFunc(password, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
	if !hasLetter {
		problems = append(problems, "Password must contain at least one letter")
	}

	return len(problems) == 0, problems
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) (bool, string) {
	if len(username) < 3 {
		return false, "Username must be at least 3 characters"
	}
	if len(username) > 150 {
		return false, "Username must be at most 150 characters"
	}
	if !usernamePattern.MatchString(username) {
		return false, "Username can only contain letters, numbers and @/./+/-/_ characters"
	}
	return true, ""
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeText strips HTML markup from free text such as comments and descriptions,
// keeping only the text content
func SanitizeText(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input, either way return what was collected
			return SanitizeString(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
