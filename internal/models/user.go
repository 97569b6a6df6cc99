package models

import "slices"

type User struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	StoreName   *string `json:"store_name,omitempty"`
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSeller || r == RoleBuyer
}

// In reports whether r is part of the allow-list.
func (r Role) In(allowed []Role) bool {
	return slices.Contains(allowed, r)
}

type SignUpType string

const (
	SignUpBuyer  SignUpType = "buyer"
	SignUpSeller SignUpType = "seller"
)

type SignInRequest struct {
	Name        string  `json:"name" validate:"required"`
	PhoneNumber *string `json:"phone_number"`
	Password    string  `json:"password" validate:"min=6"`
}

type SellerSignUpRequest struct {
	Name        string `json:"name" validate:"min=5"`
	PhoneNumber string `json:"phone_number" validate:"min=8"`
	StoreName   string `json:"store_name" validate:"min=2"`
	Password    string `json:"password" validate:"min=5"`
}

type BuyerSignUpRequest struct {
	Name        string `json:"name" validate:"min=5"`
	PhoneNumber string `json:"phone_number" validate:"min=8"`
	Password    string `json:"password" validate:"min=5"`
}

type SignInResponse struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	User    *User  `json:"user"`
	Landing string `json:"landing"`
}
