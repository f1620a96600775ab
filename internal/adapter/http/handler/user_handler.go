package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/middleware"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

type UserHandler struct {
	svc  port.UserService
	opts Options
}

func NewUserHandler(svc port.UserService, opts Options) *UserHandler {
	return &UserHandler{
		svc:  svc,
		opts: opts,
	}
}

func (u *UserHandler) GetUserProfile(c *gin.Context) {
	ctx, span := startSpan(c, "user.GetUserProfile")
	defer span.End()

	user, err := u.svc.GetProfile(ctx, middleware.UserID(c))

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"user": user}, "User profile fetched")
}

func (u *UserHandler) IsUserLoggedIn(c *gin.Context) {
	ctx, span := startSpan(c, "user.IsUserLoggedIn")
	defer span.End()

	session, err := u.svc.IsLoggedIn(ctx, middleware.UserID(c))

	if err != nil {
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, session, "User is logged in")
}

func (u *UserHandler) ChangeProfilePicture(c *gin.Context) {
	ctx, span := startSpan(c, "user.ChangeProfilePicture")
	defer span.End()

	upload, cleanup, err := spoolUpload(c, ProfilePictureForm, u.opts.UploadDir)
	defer cleanup()

	if err != nil {
		SendFailure(c, err)
		return
	}

	if upload == nil {
		SendFailure(c, domain.NewError(domain.CodeValidation, "Profile picture is required"))
		return
	}

	user, err := u.svc.ChangeProfilePicture(ctx, middleware.UserID(c), *upload)

	if err != nil {
		span.RecordError(err)
		SendFailure(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, user, "Profile picture updated")
}

func (u *UserHandler) DeleteAccount(c *gin.Context) {
	ctx, span := startSpan(c, "user.DeleteAccount")
	defer span.End()

	if err := u.svc.DeleteAccount(ctx, middleware.UserID(c)); err != nil {
		SendFailure(c, err)
		return
	}

	clearRefreshCookie(c, u.opts)
	SendSuccess(c, http.StatusOK, gin.H{}, "Account deleted successfully")
}
