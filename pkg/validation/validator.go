package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	vd "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
)

// ValidationError is returned when a struct fails its `validate` tags.
// Messages is keyed by the field's JSON name.
type ValidationError struct {
	Root     error
	Messages map[string]string
}

// Error returns the error message with all validation messages combined.
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Messages))
	for field := range v.Messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.Messages[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error { return v.Root }

func (v *ValidationError) Type() omerrors.ErrorType { return omerrors.ErrorTypeValidation }

func (v *ValidationError) Severity() omerrors.ErrorSeverity { return omerrors.SeverityPermanent }

// Validator validates structs against their `validate` tags and translates failures to English.
type Validator struct {
	validate *vd.Validate
	trans    ut.Translator
}

// Validate validates the given struct and returns a *ValidationError if it is not valid.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var errs vd.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	messages := make(map[string]string, len(errs))
	for _, fe := range errs {
		messages[fieldPath(fe)] = fe.Translate(v.trans)
	}
	return &ValidationError{Root: err, Messages: messages}
}

// fieldPath drops the top-level struct name from the namespace: "Config.baseurl" -> "baseurl".
func fieldPath(fe vd.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// RegisterCustomValidator registers a custom validator function with its own tag and error message.
func (v *Validator) RegisterCustomValidator(cv CustomValidator) error {
	if err := v.validate.RegisterValidation(cv.tag, cv.fn, false); err != nil {
		return fmt.Errorf("failed to register custom validation '%s': %w", cv.tag, err)
	}
	err := v.validate.RegisterTranslation(cv.tag, v.trans, func(ut ut.Translator) error {
		return ut.Add(cv.tag, cv.messageText, true)
	}, func(ut ut.Translator, fe vd.FieldError) string {
		t, _ := ut.T(cv.tag, append([]string{fe.Field()}, cv.params...)...)
		return t
	})
	if err != nil {
		return fmt.Errorf("failed to register custom validation '%s' translation: %w", cv.tag, err)
	}
	return nil
}

// New creates a Validator that reports fields by their JSON names.
func New() (*Validator, error) {
	validate := vd.New(vd.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonTagName)

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator(enLocale.Locale())
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	v := &Validator{
		validate: validate,
		trans:    trans,
	}
	for _, customValidator := range customValidators {
		if err := v.RegisterCustomValidator(customValidator); err != nil {
			return nil, err
		}
	}
	return v, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide Validator, built on first use.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = New()
	})
	return defaultValidator, defaultErr
}

func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// CustomValidator is a tagged validation function with its English message.
type CustomValidator struct {
	tag         string
	fn          vd.Func
	messageText string
	params      []string
}

// NewCustomRegexValidator builds a CustomValidator that matches string fields against regex.
func NewCustomRegexValidator(tag string, regex string) CustomValidator {
	compiled := lazyRegexCompile(regex)
	return CustomValidator{
		tag:         tag,
		messageText: regexValidatorMessage,
		params:      []string{regex},
		fn: func(fl vd.FieldLevel) bool {
			return compiled().MatchString(fl.Field().String())
		},
	}
}

var customValidators = []CustomValidator{
	NewCustomRegexValidator("site_key", siteKeyRegexString),
}

func lazyRegexCompile(str string) func() *regexp.Regexp {
	var regex *regexp.Regexp
	var once sync.Once
	return func() *regexp.Regexp {
		once.Do(func() {
			regex = regexp.MustCompile(str)
		})
		return regex
	}
}

const (
	regexValidatorMessage = "{0} must comply with the regular expression pattern '{1}'"
	siteKeyRegexString    = `^[^/?#\s][^/?#]*$`
)
