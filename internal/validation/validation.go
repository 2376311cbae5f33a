package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "membership/internal/errors"
)

// Validator checks inbound payloads and reports the first violated rule.
// It also satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator. Field names in failures follow the `form` tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("maxbytes", maxBytes)
	return &Validator{validate: v}
}

// maxBytes limits the encoded length of a string. bcrypt rejects secrets
// longer than 72 bytes, which max counts in runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate returns nil or an *errors.ValidationError for the first failing field.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	return &apperrors.ValidationError{
		Field:   first.Field(),
		Rule:    first.Tag(),
		Message: message(first),
	}
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Please enter a valid email address."
	case "min":
		return label + " must be at least " + fe.Param() + " characters."
	case "max":
		return label + " must be at most " + fe.Param() + " characters."
	case "maxbytes":
		return label + " must be at most " + fe.Param() + " bytes long."
	default:
		return label + " is invalid."
	}
}

var labels = map[string]string{
	"firstName": "First name",
	"email":     "Email",
	"password":  "Password",
}
