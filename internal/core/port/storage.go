package port

import "context"

type StoredObject struct {
	URL      string
	PublicID string
}

// ObjectStorage uploads local files to a remote bucket.
type ObjectStorage interface {
	Upload(ctx context.Context, localPath string) (StoredObject, error)
	DeleteByURL(ctx context.Context, url string) error
}
