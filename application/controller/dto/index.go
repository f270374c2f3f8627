package dto

type UsagePolicyDTO struct {
	AllowCommercialUse bool     `json:"allowCommercialUse"`
	AllowAITraining    bool     `json:"allowAITraining"`
	AllowDeepfake      bool     `json:"allowDeepfake"`
	BlockedCategories  []string `json:"blockedCategories"`
	BlockedBrands      []string `json:"blockedBrands"`
	BlockedRegions     []string `json:"blockedRegions" validate:"omitempty,dive,region_code"`
}

type PricingDTO struct {
	BaseLicenseFee  float64 `json:"baseLicenseFee" validate:"omitempty,gte=0"`
	Currency        string  `json:"currency" validate:"omitempty,len=3"`
	RevSharePercent float64 `json:"revSharePercent" validate:"omitempty,gte=0,lte=100"`
}

type RegisterIdentityDTO struct {
	OwnerID        string         `json:"ownerID" validate:"required"`
	DisplayName    string         `json:"displayName" validate:"required,min=2,max=100,name_special_char"`
	Image          string         `json:"image" validate:"required"`
	SecondaryImage string         `json:"secondaryImage"`
	Policy         UsagePolicyDTO `json:"policy"`
	Pricing        PricingDTO     `json:"pricing"`
}

type VerifyMediaDTO struct {
	Image    string `json:"image" validate:"required"`
	Intent   string `json:"intent" validate:"omitempty,usage_intent"`
	Category string `json:"category" validate:"omitempty,max=100"`
	Brand    string `json:"brand" validate:"omitempty,max=100"`
	Region   string `json:"region" validate:"omitempty,region_code"`
}

type RevokeIdentityDTO struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}
