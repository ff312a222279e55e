package models

import "github.com/golang-jwt/jwt/v5"

// AccountRole distinguishes doctor and patient tokens.
type AccountRole string

const (
	RoleDoctor  AccountRole = "doctor"
	RolePatient AccountRole = "patient"
)

// Token types carried in the type claim, mirroring the access/refresh pair.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTClaims are the claims carried by both access and refresh tokens.
type JWTClaims struct {
	UID       string      `json:"uid"`
	Email     string      `json:"email"`
	Role      AccountRole `json:"role"`
	TokenType string      `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair issued on registration, login and
// refresh.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int64  `json:"expires_in"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
