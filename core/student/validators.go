package student

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chuteinicial/backend/core"
)

var (
	categoryTag  = "categoria"
	categoryText = "must be one of: " + strings.Join(Categories, ", ")
)

// InitValidators registers the student validation tags; must be called once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	return IsValidCategory(fl.Field().String())
}
