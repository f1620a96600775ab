package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/middleware"
	. "todolist/internal/adapter/http/validation"
	"todolist/internal/core/model/request"
	"todolist/internal/core/port"
	"todolist/internal/core/util"
)

type AuthHandler struct {
	svc  port.AuthService
	opts Options
}

func NewAuthHandler(svc port.AuthService, opts Options) *AuthHandler {
	return &AuthHandler{
		svc:  svc,
		opts: opts,
	}
}

// Register accepts multipart (with an optional profilePicture file) or JSON.
func (a *AuthHandler) Register(c *gin.Context) {
	ctx, span := startSpan(c, "auth.Register")
	defer span.End()

	params, err := util.FormOrJSON[request.SignUpRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	upload, cleanup, err := spoolUpload(c, ProfilePictureForm, a.opts.UploadDir)
	defer cleanup()

	if err != nil {
		SendFailure(c, err)
		return
	}

	params.ProfilePicture = upload

	user, err := a.svc.Register(ctx, &params)

	if err != nil {
		span.RecordError(err)
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusCreated, user, "User successfully created")
}

func (a *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx, span := startSpan(c, "auth.VerifyEmail")
	defer span.End()

	params := request.VerifyEmailRequest{Token: c.Query("token")}

	if params.Token == "" {
		var err error

		if params, err = util.FormOrJSON[request.VerifyEmailRequest](c); err != nil {
			SendBindingError(c, err)
			return
		}
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.VerifyEmail(ctx, params.Token)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, user, "Email verified successfully")
}

func (a *AuthHandler) ResendVerification(c *gin.Context) {
	ctx, span := startSpan(c, "auth.ResendVerification")
	defer span.End()

	params, err := util.ParamsToMap[request.EmailRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := a.svc.ResendVerification(ctx, params.Email); err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{}, "Verification email sent")
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx, span := startSpan(c, "auth.Login")
	defer span.End()

	params, err := util.ParamsToMap[request.LoginRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	session, err := a.svc.Login(ctx, &params)

	if err != nil {
		SendFailure(c, err)
		return
	}

	setRefreshCookie(c, a.opts, session.RefreshToken)
	SendSuccess(c, http.StatusOK, session, "User logged in successfully")
}

// RefreshToken rotates the session from the refreshToken cookie only.
func (a *AuthHandler) RefreshToken(c *gin.Context) {
	ctx, span := startSpan(c, "auth.RefreshToken")
	defer span.End()

	cookie, _ := c.Cookie(RefreshCookieName)

	session, err := a.svc.Refresh(ctx, cookie)

	if err != nil {
		clearRefreshCookie(c, a.opts)
		SendFailure(c, err)
		return
	}

	setRefreshCookie(c, a.opts, session.RefreshToken)
	SendSuccess(c, http.StatusOK, session, "Access token refreshed")
}

func (a *AuthHandler) Logout(c *gin.Context) {
	ctx, span := startSpan(c, "auth.Logout")
	defer span.End()

	if err := a.svc.Logout(ctx, middleware.UserID(c)); err != nil {
		SendFailure(c, err)
		return
	}

	clearRefreshCookie(c, a.opts)
	SendSuccess(c, http.StatusOK, gin.H{}, "User logged out successfully")
}

func (a *AuthHandler) ChangePassword(c *gin.Context) {
	ctx, span := startSpan(c, "auth.ChangePassword")
	defer span.End()

	params, err := util.ParamsToMap[request.ChangePasswordRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := a.svc.ChangePassword(ctx, middleware.UserID(c), &params); err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (a *AuthHandler) ChangeEmail(c *gin.Context) {
	ctx, span := startSpan(c, "auth.ChangeEmail")
	defer span.End()

	params, err := util.ParamsToMap[request.ChangeEmailRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.ChangeEmail(ctx, middleware.UserID(c), &params)

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, user, "Email changed successfully")
}

func (a *AuthHandler) GenerateResetOtp(c *gin.Context) {
	ctx, span := startSpan(c, "auth.GenerateResetOtp")
	defer span.End()

	params, err := util.ParamsToMap[request.EmailRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := a.svc.GenerateResetOtp(ctx, params.Email); err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{}, "Otp sent to your email")
}

func (a *AuthHandler) ResetPassword(c *gin.Context) {
	ctx, span := startSpan(c, "auth.ResetPassword")
	defer span.End()

	params, err := util.ParamsToMap[request.ResetPasswordRequest](c)

	if err != nil {
		SendBindingError(c, err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := a.svc.ResetPassword(ctx, &params); err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{}, "Password reset successfully")
}
