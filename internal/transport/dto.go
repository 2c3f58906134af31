package transport

type CreateOrderItem struct {
	VariantID uint `json:"variant_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"gt=0"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type CreditGrantRequest struct {
	UserID      uint    `json:"user_id"     validate:"required"`
	Amount      float64 `json:"amount"      validate:"required"`
	Description string  `json:"description" validate:"required"`
}

type BulkCreditGrantRequest struct {
	UserIDs     []uint  `json:"user_ids"    validate:"required,min=1"`
	Amount      float64 `json:"amount"      validate:"required"`
	Description string  `json:"description" validate:"required"`
}

type DevLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AddCartItemRequest struct {
	VariantID uint `json:"variant_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"gt=0"`
}

type SetCartQuantityRequest struct {
	VariantID uint `json:"variant_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

type VariantInput struct {
	// ID present means update that variant; absent means create a new one.
	ID              *uint   `json:"id,omitempty"`
	Size            string  `json:"size"`
	Color           string  `json:"color"`
	CreditsModifier float64 `json:"credits_modifier"`
	Quantity        int     `json:"quantity" validate:"gte=0"`
}

type CreateProductRequest struct {
	Name        string         `json:"name"         validate:"required"`
	Description string         `json:"description"`
	BaseCredits float64        `json:"base_credits" validate:"gte=0"`
	ImageURL    string         `json:"image_url"`
	Variants    []VariantInput `json:"variants" validate:"dive"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	BaseCredits *float64 `json:"base_credits,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type UserImport struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name"  validate:"required"`
	Role      string `json:"role"  validate:"omitempty,oneof=intern employee senior admin"`
	StartDate string `json:"start_date"`
}

type DemoVerifyRequest struct {
	Password string `json:"password" validate:"required"`
}
