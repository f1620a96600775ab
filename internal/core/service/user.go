package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
)

type UserService struct {
	repo      port.UserRepository
	todos     port.TodoRepository
	storage   port.ObjectStorage
	cache     port.CacheRepository
	telemetry port.Telemetry
	logger    *zap.Logger
	now       func() time.Time
}

func NewUserService(repo port.UserRepository, todos port.TodoRepository, storage port.ObjectStorage, cache port.CacheRepository, telemetry port.Telemetry, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &UserService{
		repo:      repo,
		todos:     todos,
		storage:   storage,
		cache:     cache,
		telemetry: telemetry,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (us *UserService) WithClock(now func() time.Time) *UserService {
	us.now = now
	return us
}

func (us *UserService) GetProfile(ctx context.Context, userID string) (resp *response.UserResponse, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "get_profile", userID)
	defer func() { done(err) }()

	user, err := us.repo.GetByID(ctx, userID)

	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	return response.NewUserResponse(user), nil
}

// IsLoggedIn reports the session state of an authenticated caller.
func (us *UserService) IsLoggedIn(ctx context.Context, userID string) (*response.SessionResponse, error) {
	user, err := us.GetProfile(ctx, userID)

	if err != nil {
		return nil, err
	}

	return &response.SessionResponse{LoggedIn: true, User: user}, nil
}

func (us *UserService) ChangeProfilePicture(ctx context.Context, userID string, file request.UploadedFile) (resp *response.UserResponse, err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "change_profile_picture", userID)
	defer func() { done(err) }()

	if file.Path == "" {
		return nil, domain.NewError(domain.CodeValidation, "Profile picture is required")
	}

	user, err := us.repo.GetByID(ctx, userID)

	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	object, err := us.storage.Upload(ctx, file.Path)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Error while uploading profile picture", err)
	}

	previous := user.ProfilePictureURL
	user.ProfilePictureURL = object.URL
	user.UpdatedAt = us.now()

	saved, err := us.repo.Update(ctx, user)

	if err != nil {
		us.dropPicture(ctx, userID, object.URL)
		return nil, domain.WrapError(domain.CodeInternal, "Error while updating profile picture", err)
	}

	if previous != "" {
		us.dropPicture(ctx, userID, previous)
	}

	us.telemetry.RecordBusinessEvent(ctx, "profile_picture_changed", "user", saved.ID, saved.ID, nil)

	return response.NewUserResponse(saved), nil
}

// DeleteAccount removes the user together with every todo and sub-todo they own.
func (us *UserService) DeleteAccount(ctx context.Context, userID string) (err error) {
	ctx, done := observe(ctx, us.telemetry, "user", "delete_account", userID)
	defer func() { done(err) }()

	user, err := us.repo.GetByID(ctx, userID)

	if err != nil {
		return notFoundOr(err, "User not found")
	}

	if err := us.todos.DeleteAllByUser(ctx, user.ID); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while deleting todos", err)
	}

	if err := us.repo.DeleteByID(ctx, user.ID); err != nil {
		return notFoundOr(err, "User not found")
	}

	todoListCache{cache: us.cache, logger: us.logger}.invalidate(ctx, user.ID)

	if user.ProfilePictureURL != "" {
		us.dropPicture(ctx, user.ID, user.ProfilePictureURL)
	}

	us.telemetry.RecordBusinessEvent(ctx, "account_deleted", "user", user.ID, user.ID, nil)

	return nil
}

func (us *UserService) dropPicture(ctx context.Context, userID string, url string) {
	if us.storage == nil {
		return
	}

	if err := us.storage.DeleteByURL(ctx, url); err != nil {
		us.logger.Warn("Failed to delete profile picture",
			zap.String("user_id", userID),
			zap.String("url", url),
			zap.Error(err))
	}
}
