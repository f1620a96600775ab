package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"todolist/internal/adapter/http/middleware"
	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
)

const (
	RefreshCookieName  = "refreshToken"
	ProfilePictureForm = "profilePicture"
	maxUploadBytes     = 5 << 20
)

// Options controls cookie and upload behavior shared by the handlers.
type Options struct {
	SecureCookies bool
	RefreshTTL    time.Duration
	UploadDir     string
}

func (o Options) refreshMaxAge() int {
	if o.RefreshTTL <= 0 {
		return int((7 * 24 * time.Hour).Seconds())
	}

	return int(o.RefreshTTL.Seconds())
}

func setRefreshCookie(c *gin.Context, opts Options, value string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(RefreshCookieName, value, opts.refreshMaxAge(), "/", "", opts.SecureCookies, true)
}

func clearRefreshCookie(c *gin.Context, opts Options) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", opts.SecureCookies, true)
}

var tracer = otel.Tracer("todolist/http")

func startSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(c.Request.Context(), "handler."+name, trace.WithAttributes(
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
		attribute.String("user.id", middleware.UserID(c)),
	))
}

// spoolUpload copies the multipart file in field to a temp file. The
// returned cleanup removes it and is safe to call when no file was sent.
func spoolUpload(c *gin.Context, field string, dir string) (*request.UploadedFile, func(), error) {
	noop := func() {}

	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}

	header, err := c.FormFile(field)

	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}

	if err != nil {
		return nil, noop, domain.WrapError(domain.CodeValidation, "Invalid multipart form", err)
	}

	if header.Size > maxUploadBytes {
		return nil, noop, domain.NewError(domain.CodeValidation, "Profile picture must be at most 5MB")
	}

	tmp, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))

	if err != nil {
		return nil, noop, domain.WrapError(domain.CodeInternal, "Error while saving upload", err)
	}

	path := tmp.Name()
	tmp.Close()

	cleanup := func() { os.Remove(path) }

	if err := c.SaveUploadedFile(header, path); err != nil {
		cleanup()
		return nil, noop, domain.WrapError(domain.CodeInternal, "Error while saving upload", err)
	}

	return &request.UploadedFile{
		Path:     path,
		Filename: header.Filename,
		Size:     header.Size,
	}, cleanup, nil
}
