package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/sergeii/paytv/internal/validation/validators"
)

func New() (*validator.Validate, error) {
	validate := validator.New()
	if err := validate.RegisterValidation("hexlen", validators.ValidateHexLen); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("hexmin", validators.ValidateHexMin); err != nil {
		return nil, err
	}
	return validate, nil
}
