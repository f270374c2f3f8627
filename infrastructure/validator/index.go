package validator

func init() {
	validate.RegisterValidation("region_code", validateRegionCode)
	validate.RegisterValidation("usage_intent", validateUsageIntent)
	validate.RegisterValidation("name_special_char", validateNameWithSpecialChars)
}

type Validator struct{}

func (v *Validator) ValidateStruct(payload interface{}) *[]error {
	return validateStruct(payload)
}

func (v *Validator) ValidateValue(value any, rules string) error {
	return validateField(value, rules)
}

var ValidatorInstance = Validator{}
