package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLength = 4
	MinNameLength     = 2
	MinPasswordLength = 6
	MinAdminPassword  = 8
)

var (
	validate        = newValidator()
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s by its `validate` tags and reports the first failure as
// a validation error with a readable message.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", common.ErrValidation, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, err.Error())
}

// Email checks a single address.
func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: email is not a valid address", common.ErrValidation)
	}
	return nil
}

func Username(username string) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters long", common.ErrValidation, MinUsernameLength)
	}
	if ContainsProfanity(username) {
		return fmt.Errorf("%w: username contains inappropriate content", common.ErrValidation)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username can only contain letters, numbers, underscores, and hyphens", common.ErrValidation)
	}
	return nil
}

// Name checks a first or last name after trimming.
func Name(field, value string) error {
	if len(strings.TrimSpace(value)) < MinNameLength {
		return fmt.Errorf("%w: %s must be at least %d characters long", common.ErrValidation, field, MinNameLength)
	}
	return nil
}

func Password(password string, minLength int) error {
	if len(password) < minLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrValidation, minLength)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " is not a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())
	}
}
