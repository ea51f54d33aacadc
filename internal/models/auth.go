package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload presented to the gateway.
// Organization is the ledger MSP the user acts for; the token signature is
// what makes it trustworthy.
type JWTClaims struct {
	UserID       string `json:"user_id"`
	Organization string `json:"org"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	jwt.RegisteredClaims
}
