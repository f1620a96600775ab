package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/util"
)

type AuthConfig struct {
	RequireVerifiedEmail bool
	AppBaseURL           string
}

type AuthService struct {
	repo      port.UserRepository
	tokens    port.TokenIssuer
	mailer    port.Mailer
	storage   port.ObjectStorage
	telemetry port.Telemetry
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

func NewAuthService(repo port.UserRepository, tokens port.TokenIssuer, mailer port.Mailer, storage port.ObjectStorage, telemetry port.Telemetry, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		mailer:    mailer,
		storage:   storage,
		telemetry: telemetry,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (as *AuthService) WithClock(now func() time.Time) *AuthService {
	as.now = now
	return as
}

func (as *AuthService) Register(ctx context.Context, req *request.SignUpRequest) (resp *response.UserResponse, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "register", "")
	defer func() { done(err) }()

	fullName := strings.TrimSpace(req.FullName)
	email := normalizeEmail(req.Email)

	if fullName == "" || email == "" || req.Password == "" {
		return nil, domain.NewError(domain.CodeValidation, "Please provide all fields")
	}

	if err := as.ensureEmailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}

	encrypted, err := util.GenerateEncrypt(req.Password)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "error creating encrypted password", err)
	}

	now := as.now()

	user := domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: encrypted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.ProfilePicture != nil && as.storage != nil {
		object, err := as.storage.Upload(ctx, req.ProfilePicture.Path)

		if err != nil {
			as.logger.Warn("Profile picture upload failed, continuing without it",
				zap.String("user_id", user.ID),
				zap.Error(err))
		} else {
			user.ProfilePictureURL = object.URL
		}
	}

	verification, err := as.tokens.IssueVerificationToken(user.ID)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "error creating verification token", err)
	}

	user.SetVerificationToken(verification)

	saved, err := as.repo.Create(ctx, user)

	if err != nil {
		if user.ProfilePictureURL != "" {
			as.discardPicture(ctx, user.ID, user.ProfilePictureURL)
		}

		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.WrapError(domain.CodeConflict, "User already exists", err)
		}

		return nil, domain.WrapError(domain.CodeInternal, "Error while creating user", err)
	}

	as.sendVerification(ctx, saved, verification)
	as.telemetry.RecordBusinessEvent(ctx, "user_registered", "user", saved.ID, saved.ID, nil)

	return response.NewUserResponse(saved), nil
}

func (as *AuthService) VerifyEmail(ctx context.Context, token string) (resp *response.UserResponse, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "verify_email", "")
	defer func() { done(err) }()

	if token == "" {
		return nil, domain.NewError(domain.CodeValidation, "Verification token is required")
	}

	user, err := as.repo.GetByVerificationToken(ctx, token)

	if err != nil {
		return nil, notFoundOr(err, "Invalid or already used verification link")
	}

	subject, err := as.tokens.Verify(token, port.VerificationToken)

	if err != nil {
		return nil, err
	}

	if subject != user.ID {
		return nil, domain.NewError(domain.CodeInvalidToken, "invalid token")
	}

	user.MarkVerified()
	user.UpdatedAt = as.now()

	saved, err := as.repo.Update(ctx, user)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Error while verifying email", err)
	}

	as.telemetry.RecordBusinessEvent(ctx, "email_verified", "user", saved.ID, saved.ID, nil)

	return response.NewUserResponse(saved), nil
}

func (as *AuthService) ResendVerification(ctx context.Context, email string) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "resend_verification", "")
	defer func() { done(err) }()

	user, err := as.repo.GetByEmail(ctx, normalizeEmail(email))

	if err != nil {
		return notFoundOr(err, "User not found")
	}

	if user.IsVerified {
		return domain.NewError(domain.CodeConflict, "Email is already verified")
	}

	verification, err := as.tokens.IssueVerificationToken(user.ID)

	if err != nil {
		return domain.WrapError(domain.CodeInternal, "error creating verification token", err)
	}

	user.SetVerificationToken(verification)
	user.UpdatedAt = as.now()

	if _, err := as.repo.Update(ctx, user); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while updating user", err)
	}

	mail, err := verificationMail(user.Email, user.FullName, as.config.AppBaseURL, verification, as.tokens.TTL(port.VerificationToken))

	if err == nil {
		err = as.mailer.Send(ctx, mail)
	}

	if err != nil {
		return domain.WrapError(domain.CodeInternal, "Could not send verification email", err)
	}

	return nil
}

func (as *AuthService) Login(ctx context.Context, req *request.LoginRequest) (resp *response.AuthResponse, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "login", "")
	defer func() { done(err) }()

	user, err := as.repo.GetByEmail(ctx, normalizeEmail(req.Email))

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, domain.WrapError(domain.CodeInternal, "authentication failed", err)
	}

	if !util.PasswordMatches(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if as.config.RequireVerifiedEmail && !user.IsVerified {
		return nil, domain.NewError(domain.CodeInvalidCredentials, "Please verify your email before logging in")
	}

	resp, err = as.startSession(ctx, user)

	if err != nil {
		return nil, err
	}

	as.telemetry.RecordBusinessEvent(ctx, "user_logged_in", "user", user.ID, user.ID, nil)

	return resp, nil
}

func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (resp *response.AuthResponse, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "refresh", "")
	defer func() { done(err) }()

	if refreshToken == "" {
		return nil, domain.NewError(domain.CodeUnauthorized, "Refresh token is missing")
	}

	subject, err := as.tokens.Verify(refreshToken, port.RefreshToken)

	if err != nil {
		return nil, domain.WrapError(domain.CodeUnauthorized, "Invalid refresh token", err)
	}

	user, err := as.repo.GetByID(ctx, subject)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeUnauthorized, "Invalid refresh token")
		}

		return nil, domain.WrapError(domain.CodeInternal, "Error while refreshing session", err)
	}

	if !user.HasRefreshToken(refreshToken) {
		return nil, domain.NewError(domain.CodeUnauthorized, "Refresh token has been revoked")
	}

	return as.startSession(ctx, user)
}

func (as *AuthService) Logout(ctx context.Context, userID string) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "logout", userID)
	defer func() { done(err) }()

	user, err := as.repo.GetByID(ctx, userID)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}

		return domain.WrapError(domain.CodeInternal, "Error while logging out", err)
	}

	if user.RefreshToken == nil {
		return nil
	}

	user.ClearRefreshToken()
	user.UpdatedAt = as.now()

	if _, err := as.repo.Update(ctx, user); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while logging out", err)
	}

	return nil
}

func (as *AuthService) ChangePassword(ctx context.Context, userID string, req *request.ChangePasswordRequest) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "change_password", userID)
	defer func() { done(err) }()

	if req.OldPassword == "" || req.NewPassword == "" {
		return domain.NewError(domain.CodeValidation, "Old and new password are required")
	}

	user, err := as.repo.GetByID(ctx, userID)

	if err != nil {
		return notFoundOr(err, "User not found")
	}

	if !util.PasswordMatches(req.OldPassword, user.PasswordHash) {
		return domain.NewError(domain.CodeInvalidCredentials, "Old password is incorrect")
	}

	if req.OldPassword == req.NewPassword {
		return domain.ErrSamePassword
	}

	encrypted, err := util.GenerateEncrypt(req.NewPassword)

	if err != nil {
		return domain.WrapError(domain.CodeInternal, "error creating encrypted password", err)
	}

	user.PasswordHash = encrypted
	user.UpdatedAt = as.now()

	if _, err := as.repo.Update(ctx, user); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while changing password", err)
	}

	as.telemetry.RecordBusinessEvent(ctx, "password_changed", "user", user.ID, user.ID, nil)

	return nil
}

func (as *AuthService) ChangeEmail(ctx context.Context, userID string, req *request.ChangeEmailRequest) (resp *response.UserResponse, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "change_email", userID)
	defer func() { done(err) }()

	email := normalizeEmail(req.Email)

	if email == "" {
		return nil, domain.NewError(domain.CodeValidation, "Email is required")
	}

	user, err := as.repo.GetByID(ctx, userID)

	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	if user.Email == email {
		return nil, domain.NewError(domain.CodeValidation, "New email must differ from the current one")
	}

	if err := as.ensureEmailAvailable(ctx, email, user.ID); err != nil {
		return nil, err
	}

	verification, err := as.tokens.IssueVerificationToken(user.ID)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "error creating verification token", err)
	}

	user.Email = email
	user.IsVerified = false
	user.SetVerificationToken(verification)
	user.UpdatedAt = as.now()

	saved, err := as.repo.Update(ctx, user)

	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.WrapError(domain.CodeConflict, "Email is already in use", err)
		}

		return nil, domain.WrapError(domain.CodeInternal, "Error while changing email", err)
	}

	as.sendVerification(ctx, saved, verification)
	as.telemetry.RecordBusinessEvent(ctx, "email_changed", "user", saved.ID, saved.ID, nil)

	return response.NewUserResponse(saved), nil
}

func (as *AuthService) GenerateResetOtp(ctx context.Context, email string) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "generate_reset_otp", "")
	defer func() { done(err) }()

	user, err := as.repo.GetByEmail(ctx, normalizeEmail(email))

	if err != nil {
		return notFoundOr(err, "User not found")
	}

	code, expiry, err := as.tokens.IssueOtp()

	if err != nil {
		return domain.WrapError(domain.CodeInternal, "error creating otp", err)
	}

	user.SetOtp(code, expiry)
	user.UpdatedAt = as.now()

	if _, err := as.repo.Update(ctx, user); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while generating otp", err)
	}

	mail, err := otpMail(user.Email, user.FullName, code, expiry.Sub(as.now()))

	if err == nil {
		err = as.mailer.Send(ctx, mail)
	}

	if err != nil {
		as.telemetry.RecordBusinessEvent(ctx, "reset_otp", "mail", user.ID, user.ID, nil)
		return domain.WrapError(domain.CodeInternal, "Could not send reset code", err)
	}

	return nil
}

func (as *AuthService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "reset_password", "")
	defer func() { done(err) }()

	if req.Otp == "" || req.NewPassword == "" {
		return domain.NewError(domain.CodeValidation, "Otp and new password are required")
	}

	user, err := as.repo.GetByEmail(ctx, normalizeEmail(req.Email))

	if err != nil {
		return notFoundOr(err, "User not found")
	}

	if !user.OtpMatches(req.Otp) {
		return domain.ErrInvalidOtp
	}

	if user.OtpExpired(as.now()) {
		user.ClearOtp()
		user.UpdatedAt = as.now()

		if _, err := as.repo.Update(ctx, user); err != nil {
			as.logger.Warn("Failed to clear expired otp", zap.String("user_id", user.ID), zap.Error(err))
		}

		return domain.ErrExpiredOtp
	}

	if util.PasswordMatches(req.NewPassword, user.PasswordHash) {
		return domain.ErrSamePassword
	}

	encrypted, err := util.GenerateEncrypt(req.NewPassword)

	if err != nil {
		return domain.WrapError(domain.CodeInternal, "error creating encrypted password", err)
	}

	user.PasswordHash = encrypted
	user.ClearOtp()
	user.ClearRefreshToken()
	user.UpdatedAt = as.now()

	if _, err := as.repo.Update(ctx, user); err != nil {
		return domain.WrapError(domain.CodeInternal, "Error while resetting password", err)
	}

	as.telemetry.RecordBusinessEvent(ctx, "password_reset", "user", user.ID, user.ID, nil)

	return nil
}

// startSession issues a token pair and stores the refresh token, replacing
// whatever session the user had before.
func (as *AuthService) startSession(ctx context.Context, user domain.User) (*response.AuthResponse, error) {
	accessToken, err := as.tokens.IssueAccessToken(user.ID)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Failed to generate access token", err)
	}

	refreshToken, err := as.tokens.IssueRefreshToken(user.ID)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Failed to generate refresh token", err)
	}

	user.SetRefreshToken(refreshToken)
	user.UpdatedAt = as.now()

	saved, err := as.repo.Update(ctx, user)

	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, "Failed to store refresh token", err)
	}

	return &response.AuthResponse{
		User:         response.NewUserResponse(saved),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (as *AuthService) ensureEmailAvailable(ctx context.Context, email string, ownerID string) error {
	existing, err := as.repo.GetByEmail(ctx, email)

	if err == nil && existing.ID != ownerID {
		return domain.NewError(domain.CodeConflict, "User already exists")
	}

	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.WrapError(domain.CodeInternal, "Error while checking email", err)
	}

	return nil
}

// sendVerification delivers the verification link on a best-effort basis:
// a delivery failure is logged and counted but never fails the caller.
func (as *AuthService) sendVerification(ctx context.Context, user domain.User, token string) {
	mail, err := verificationMail(user.Email, user.FullName, as.config.AppBaseURL, token, as.tokens.TTL(port.VerificationToken))

	if err == nil {
		err = as.mailer.Send(ctx, mail)
	}

	if err != nil {
		as.logger.Error("Verification email could not be sent",
			zap.String("user_id", user.ID),
			zap.Error(err))

		as.telemetry.RecordBusinessEvent(ctx, "verification", "mail", user.ID, user.ID, nil)
	}
}

func (as *AuthService) discardPicture(ctx context.Context, userID string, url string) {
	if err := as.storage.DeleteByURL(ctx, url); err != nil {
		as.logger.Warn("Failed to delete orphan profile picture",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFoundOr turns a store miss into a NotFound with message and anything
// else into an internal error.
func notFoundOr(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.WrapError(domain.CodeNotFound, message, err)
	}

	return domain.WrapError(domain.CodeInternal, "unexpected storage error", err)
}
