package validator

import (
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// RegisterTags adds the frphone and siret struct tags to a validator engine,
// typically gin's binding.Validator.Engine(). Field errors report the JSON
// name of the field.
func RegisterTags(engine interface{}) error {
	v, ok := engine.(*playground.Validate)
	if !ok {
		return fmt.Errorf("unsupported validator engine %T", engine)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	phones := NewPhoneValidator()
	if err := v.RegisterValidation("frphone", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || phones.IsValid(s)
	}); err != nil {
		return fmt.Errorf("failed to register frphone: %w", err)
	}

	if err := v.RegisterValidation("siret", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidSIRET(s)
	}); err != nil {
		return fmt.Errorf("failed to register siret: %w", err)
	}

	return nil
}
