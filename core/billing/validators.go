package billing

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chuteinicial/backend/core"
)

var (
	refMonthTag   = "refmonth"
	refMonthText  = "must be a year-month in the form YYYY-MM"
	refMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// InitValidators registers the billing validation tags; must be called once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(refMonthTag, refMonthValidation)
	core.RegisterCustomTranslation(validate, translator, refMonthTag, refMonthText)
}

func refMonthValidation(fl validator.FieldLevel) bool {
	return refMonthRegex.MatchString(fl.Field().String())
}
