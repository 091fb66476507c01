package model

type Customer struct {
	DTO
	Email         string `gorm:"unique;not null" json:"email"`
	Phone         string `json:"phone"`
	Password      string `gorm:"not null" json:"-"`
	UserName      string `json:"username"`
	Role          string `gorm:"size:20;not null;default:CUSTOMER" json:"role"`
	LoyaltyPoints int64  `gorm:"not null;default:0;check:loyalty_points >= 0" json:"loyaltyPoints"`
	IsActive      bool   `gorm:"default:true" json:"isActive"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CustomerLoyalty struct {
	CustomerId    uint    `json:"customerId"`
	LoyaltyPoints int64   `json:"loyaltyPoints"`
	LifetimeSpend float64 `json:"lifetimeSpend"`
	Tier          string  `json:"tier"`
}
