package usecase

import (
	authdomain "xpress-backend/internal/auth/domain"
	authdto "xpress-backend/internal/auth/dto"
)

// AuthUsecase issues and validates the application's bearer tokens.
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(token string) (*authdomain.User, error)
}
