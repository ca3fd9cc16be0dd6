package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	tagHHMM         = "hhmm"
	tagObjectIDList = "objectid_list"
)

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// AppError converts the field errors into a 422 response body.
func (v ValidationErrors) AppError() *apperrors.AppError {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return apperrors.Validation("Validation failed", details)
}

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New(log *logger.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		log.Fatal("Failed to register validator translations", "error", err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := []struct {
		tag  string
		fn   validator.Func
		text string
	}{
		{tagHHMM, validateHHMM, "{0} must be a time in HH:MM format"},
		{tagObjectIDList, validateObjectIDList, "{0} must contain valid ids"},
	}
	for _, c := range custom {
		if err := v.RegisterValidation(c.tag, c.fn); err != nil {
			log.Fatal("Failed to register validator", "tag", c.tag, "error", err)
		}
		registerTranslation(v, translator, c.tag, c.text)
	}

	return &Validator{validate: v, translator: translator}
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns a 422 AppError listing every failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translate(validationErrs).AppError()
	}
	return apperrors.InvalidInput(err.Error())
}

func (v *Validator) translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, fe := range errs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: fe.Translate(v.translator),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateObjectIDList(fl validator.FieldLevel) bool {
	ids, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, id := range ids {
		if !primitive.IsValidObjectID(id) {
			return false
		}
	}
	return true
}
