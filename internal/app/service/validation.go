package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
)

// ContentFilter screens user-supplied text.
type ContentFilter interface {
	IsProfane(text string) bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return common.Validation(fieldMessage(verrs[0]))
	}
	return fmt.Errorf("validate request: %w", err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}

// normalizeEmail trims raw; an empty result means "no email".
func normalizeEmail(raw string) (*string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return nil, nil
	}
	if err := validate.Var(email, "email,max=255"); err != nil {
		return nil, common.Validation("email must be a valid email address")
	}
	return &email, nil
}

// normalizePhone keeps digits and a leading '+', dropping common separators.
// An empty result means "no phone".
func normalizePhone(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case strings.ContainsRune(" -().", r):
		default:
			return nil, common.Validation("phone may only contain digits, spaces and + - ( ) .")
		}
	}
	phone := b.String()
	digits := len(strings.TrimPrefix(phone, "+"))
	if digits < 8 || digits > 15 {
		return nil, common.Validation("phone must have between 8 and 15 digits")
	}
	return &phone, nil
}

func optionalString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
