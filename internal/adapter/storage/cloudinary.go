package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"todolist/internal/core/port"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type CloudinaryStorage struct {
	client *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

func NewCloudinaryStorage(config CloudinaryConfig, logger *zap.Logger) (*CloudinaryStorage, error) {
	client, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)

	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}

	client.Config.URL.Secure = true

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CloudinaryStorage{client: client, folder: config.Folder, logger: logger}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, localPath string) (port.StoredObject, error) {
	result, err := s.client.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: "auto",
	})

	if err != nil {
		return port.StoredObject{}, fmt.Errorf("upload to cloudinary: %w", err)
	}

	if result.Error.Message != "" {
		return port.StoredObject{}, fmt.Errorf("upload to cloudinary: %s", result.Error.Message)
	}

	return port.StoredObject{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

func (s *CloudinaryStorage) DeleteByURL(ctx context.Context, rawURL string) error {
	publicID, err := PublicIDFromURL(rawURL)

	if err != nil {
		return err
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})

	if err != nil {
		return fmt.Errorf("delete from cloudinary: %w", err)
	}

	if result.Error.Message != "" {
		return fmt.Errorf("delete from cloudinary: %s", result.Error.Message)
	}

	s.logger.Debug("Deleted stored object", zap.String("public_id", publicID), zap.String("result", result.Result))

	return nil
}

// PublicIDFromURL extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/avatars/ada.png.
func PublicIDFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)

	if err != nil {
		return "", fmt.Errorf("parse storage url: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	start := -1

	for i, segment := range segments {
		if segment == "upload" {
			start = i + 1
			break
		}
	}

	if start < 0 || start >= len(segments) {
		return "", fmt.Errorf("not a cloudinary delivery url: %s", rawURL)
	}

	rest := segments[start:]

	if len(rest) > 1 && isVersion(rest[0]) {
		rest = rest[1:]
	}

	publicID := strings.Join(rest, "/")

	return strings.TrimSuffix(publicID, path.Ext(publicID)), nil
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}

	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// DisabledStorage rejects uploads when no storage backend is configured.
type DisabledStorage struct{}

func (DisabledStorage) Upload(ctx context.Context, localPath string) (port.StoredObject, error) {
	return port.StoredObject{}, ErrStorageDisabled
}

func (DisabledStorage) DeleteByURL(ctx context.Context, rawURL string) error {
	return nil
}
