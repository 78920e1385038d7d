package model

type Customer struct {
	DTO
	Email         string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone         string `gorm:"size:32" json:"phone"`
	Password      string `gorm:"not null" json:"-"`
	FullName      string `gorm:"size:255" json:"fullName"`
	Role          string `gorm:"size:16;not null;default:customer" json:"role"`
	LoyaltyPoints int    `gorm:"not null;default:0" json:"loyaltyPoints"`
}

type RegisterCustomerInput struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenData struct {
	AccessToken string    `json:"accessToken"`
	Customer    *Customer `json:"customer"`
}
