package site

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return invalid(fe.Field(), "failed %q rule", fe.Tag())
		}
		return err
	}
	return nil
}
