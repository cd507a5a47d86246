package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	recordIDTag   = "recordid"
	recordIDText  = "only letters, digits, dashes and underscores are allowed"
	recordIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,40}$`)

	dateTag  = "date"
	dateText = "must be a date formatted as YYYY-MM-DD"

	requiredTag     = "required"
	requiredIfTag   = "required_if"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

type (
	// Validator bundles the struct validator with its english translator.
	Validator struct {
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Violation struct {
		Field   string `json:"field"`
		Rule    string `json:"rule"`
		Message string `json:"message"`
	}

	ValidationResult struct {
		Valid      bool        `json:"valid"`
		Violations []Violation `json:"violations,omitempty"`
	}
)

func NewValidator() *Validator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	v := &Validator{
		Validate:   validator.New(),
		Translator: translator,
	}
	InitValidators(v.Validate, v.Translator)
	return v
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(recordIDTag, recordIDValidation)
	RegisterCustomTranslation(validate, translator, recordIDTag, recordIDText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredIfTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// RegisterPredicate exposes a named string predicate as the validation tag `tag`.
func (v *Validator) RegisterPredicate(tag, text string, pred func(string) bool) {
	_ = v.Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pred(fl.Field().String())
	})
	RegisterCustomTranslation(v.Validate, v.Translator, tag, text)
}

// Check validates the struct s and reports every rule it breaks.
func (v *Validator) Check(s interface{}) ValidationResult {
	err := v.Validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return ValidationResult{Violations: []Violation{{Rule: "invalid", Message: err.Error()}}}
	}
	res := ValidationResult{Violations: make([]Violation, 0, len(vErrs))}
	for _, fe := range vErrs {
		res.Violations = append(res.Violations, Violation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fe.Translate(v.Translator),
		})
	}
	return res
}

// Add records an extra violation, for rules checked outside of struct tags.
func (r *ValidationResult) Add(field, rule, msg string) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{Field: field, Rule: rule, Message: msg})
}

// Err converts an invalid result into a *ValidationError.
func (r ValidationResult) Err() error {
	if r.Valid || len(r.Violations) == 0 {
		return nil
	}
	flds := make([]FieldError, 0, len(r.Violations))
	for _, vl := range r.Violations {
		flds = append(flds, FieldError{Field: vl.Field, Error: vl.Message})
	}
	return NewValidationError(nil, flds...)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// recordIDValidation checks the shape of user supplied record identifiers.
func recordIDValidation(fl validator.FieldLevel) bool {
	return recordIDRegex.MatchString(fl.Field().String())
}

// dateValidation accepts the date layouts understood by ParseDate.
func dateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
