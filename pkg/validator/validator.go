package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  *validator.Validate
	sanitizer *bluemonday.Policy

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func Init() {
	validate = validator.New()
	sanitizer = bluemonday.StrictPolicy()

	registerCustomValidations(validate)

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomValidations(engine)
	}
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("no_html", validateNoHTML)
}

func Validate(s interface{}) error {
	return validate.Struct(s)
}

// SanitizeString strips all markup from a user-supplied value before it is
// forwarded to an external system (processor metadata, receipt email names).
func SanitizeString(s string) string {
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

// ValidateEmail checks the basic local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func validateNoHTML(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !strings.Contains(value, "<") && !strings.Contains(value, ">")
}

func TrimSpaces(s string) string {
	return strings.TrimSpace(s)
}
