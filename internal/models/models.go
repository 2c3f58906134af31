package models

import (
	"time"
)

const (
	RoleIntern   = "intern"
	RoleEmployee = "employee"
	RoleSenior   = "senior"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email     string    `gorm:"unique;not null"           json:"email"`
	Name      string    `gorm:"not null"                  json:"name"`
	Role      string    `gorm:"not null;default:employee" json:"role"`
	StartDate time.Time `gorm:"not null"                  json:"start_date"`
	IsActive  bool      `gorm:"default:true"              json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

type Product struct {
	ID          uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string           `gorm:"not null"                 json:"name"`
	Description string           `json:"description"`
	BaseCredits float64          `gorm:"not null"                 json:"base_credits"`
	ImageURL    string           `json:"image_url"`
	IsActive    bool             `gorm:"default:true"             json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Variants    []ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

type ProductVariant struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID       uint      `gorm:"index;not null"           json:"product_id"`
	Size            string    `json:"size"`
	Color           string    `json:"color"`
	CreditsModifier float64   `gorm:"default:0"                json:"credits_modifier"`
	CreatedAt       time.Time `json:"created_at"`
}

// InventoryLot is the authoritative stock record for a variant.
// Available stock is always derived as Quantity - Reserved.
type InventoryLot struct {
	ID        uint      `gorm:"primaryKey"                           json:"id"`
	VariantID uint      `gorm:"uniqueIndex;not null"                 json:"variant_id"`
	Quantity  int       `gorm:"not null;default:0;check:quantity>=0" json:"quantity"`
	Reserved  int       `gorm:"not null;default:0;check:reserved>=0" json:"reserved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *InventoryLot) Available() int { return l.Quantity - l.Reserved }

const (
	CreditTypeGrant  = "grant"
	CreditTypeDebit  = "debit"
	CreditTypeAdjust = "adjust"
)

// CreditLedgerEntry is append-only: corrections are new entries, never updates.
type CreditLedgerEntry struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"index;not null"           json:"user_id"`
	Amount           float64   `gorm:"not null"                 json:"amount"`
	CreditType       string    `gorm:"not null"                 json:"credit_type"`
	Description      string    `json:"description"`
	ReferenceOrderID *uint     `json:"reference_order_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type Order struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint        `gorm:"index;not null"           json:"user_id"`
	Status       string      `gorm:"not null;default:pending" json:"status"`
	TotalCredits float64     `gorm:"not null"                 json:"total_credits"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Items        []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem snapshots the unit price at creation time; later price
// changes never affect an existing order.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID      uint    `gorm:"index;not null"            json:"order_id"`
	VariantID    uint    `gorm:"not null"                  json:"variant_id"`
	Quantity     int     `gorm:"not null;check:quantity>0" json:"quantity"`
	UnitCredits  float64 `gorm:"not null"                  json:"unit_credits"`
	TotalCredits float64 `gorm:"not null"                  json:"total_credits"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                  json:"id"`
	UserID    uint `gorm:"index;not null"              json:"user_id"`
	VariantID uint `gorm:"not null"                    json:"variant_id"`
	Quantity  int  `gorm:"default:1;check:quantity>0"  json:"quantity"`
}
