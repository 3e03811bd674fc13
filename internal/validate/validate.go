// Package validate checks request structs with go-playground/validator and
// turns the first failure into the message a form shows for it.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormError is a validation failure on one field. Its Error text is meant
// for the user.
type FormError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *FormError) Error() string { return e.Message }

// Messages maps "Field.tag" or "Field" (json field names) to user-facing
// text. The more specific key wins. Slice element failures look up
// "Field[].tag" and "Field[]".
type Messages map[string]string

// Validator wraps a validator.Validate configured for ytclone requests.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports json field names and knows the
// "videotype" tag (a MIME type under video/).
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("videotype", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(strings.ToLower(fl.Field().String()), "video/")
	})
	return &Validator{v: v}
}

// Struct validates s and returns a *FormError for the first failing field,
// using msgs for its text.
func (x *Validator) Struct(s any, msgs Messages) error {
	err := x.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := verrs[0]
	field := fe.Field()
	key := field
	// Slice elements report as "tags[3]"; their messages live under "tags[]".
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
		key = field + "[]"
	}
	if msg, ok := msgs[key+"."+fe.Tag()]; ok {
		return &FormError{Field: field, Message: msg}
	}
	if msg, ok := msgs[key]; ok {
		return &FormError{Field: field, Message: msg}
	}
	return &FormError{Field: field, Message: fmt.Sprintf("%s is invalid", field)}
}

// Engine exposes the underlying validator, e.g. for config structs.
func (x *Validator) Engine() *validator.Validate { return x.v }
