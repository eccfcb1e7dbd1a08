package devserver

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"aorify/internal/model"
)

// commonPasswords are rejected at account creation.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"1234567890": {},
	"11111111":   {},
	"00000000":   {},
	"qwertyuiop": {},
	"abc12345":   {},
	"iloveyou":   {},
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notcommon", func(fl validator.FieldLevel) bool {
		_, common := commonPasswords[strings.ToLower(fl.Field().String())]
		return !common
	})
	return v
}

// validationMessage renders the first failed check the way the platform
// words it.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}

	fe := errs[0]
	switch fe.Field() {
	case "email":
		return model.MsgInvalidEmail
	case "password":
		return model.MsgInvalidPassword
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Param \"%s\" is not optional.", fe.Field())
	case "max":
		return fmt.Sprintf("Invalid `%s` param: Value must be at most %s characters long", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Invalid `%s` param: failed %s check", fe.Field(), fe.Tag())
	}
}
