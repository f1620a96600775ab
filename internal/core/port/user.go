package port

import (
	"context"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	DeleteByID(ctx context.Context, id string) error
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*response.UserResponse, error)
	IsLoggedIn(ctx context.Context, userID string) (*response.SessionResponse, error)
	ChangeProfilePicture(ctx context.Context, userID string, file request.UploadedFile) (*response.UserResponse, error)
	DeleteAccount(ctx context.Context, userID string) error
}
