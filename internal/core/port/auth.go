package port

import (
	"context"

	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
)

type AuthService interface {
	Register(ctx context.Context, req *request.SignUpRequest) (*response.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) (*response.UserResponse, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*response.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID string, req *request.ChangePasswordRequest) error
	ChangeEmail(ctx context.Context, userID string, req *request.ChangeEmailRequest) (*response.UserResponse, error)
	GenerateResetOtp(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}
