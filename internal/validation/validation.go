package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tbpedia-dashboard/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

var messages = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s characters long",
	"gte":      "%s must be at least %s",
	"url":      "%s must be a valid URL",
	"oneof":    "%s must be one of: %s",
}

// Validate checks v against its `validate` tags. It returns nil or an
// *apperr.Error of kind validation carrying one message per field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.KindValidation, err, "invalid payload")
	}

	fields := make(map[string]string, len(fieldErrs))
	headline := ""
	for _, fe := range fieldErrs {
		name := fieldName(fe)
		if _, seen := fields[name]; seen {
			continue
		}
		msg := message(name, fe)
		fields[name] = msg
		if headline == "" {
			headline = msg
		}
	}
	return apperr.Validation(headline, fields)
}

// fieldName strips the struct prefix and keeps dive indexes, e.g. images[0].
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func message(name string, fe validator.FieldError) string {
	tag := fe.Tag()
	// min on slices and numbers reads differently from min on strings.
	if tag == "min" && fe.Kind() != reflect.String {
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", name, fe.Param())
		}
		tag = "gte"
	}
	tmpl, ok := messages[tag]
	if !ok {
		return fmt.Sprintf("%s is invalid", name)
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, name, fe.Param())
	}
	return fmt.Sprintf(tmpl, name)
}
