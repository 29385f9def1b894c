package jwttoken

import (
	"artpriv/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) *middleware.Claims {
	return &middleware.Claims{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
}

// JWTServiceAdapter lets JWTService satisfy middleware.TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
