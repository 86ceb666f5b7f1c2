package models

import "github.com/golang-jwt/jwt/v5"

// OwnerClaims is the access token payload issued to calendar owners.
type OwnerClaims struct {
	OwnerID string `json:"owner_id"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
