package models

import "github.com/golang-jwt/jwt/v5"

// UserRole scopes what an authenticated caller may do.
type UserRole string

const (
	RoleManager    UserRole = "manager"
	RoleTechnician UserRole = "technician"
	RoleService    UserRole = "service"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// platform's auth service. This service only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
