package assets

import (
	"context"
	"errors"
)

// ErrNoURL is returned when the asset store accepted a file but handed back
// no address for it.
var ErrNoURL = errors.New("asset store returned no url")

// Asset is a stored file.
type Asset struct {
	URL          string
	PublicID     string
	ResourceType string
}

//go:generate mockgen -source=assets.go -destination=mocks/mock_assets.go -package=mocks Uploader

// Uploader pushes local files to a remote asset store.
type Uploader interface {
	// Upload sends the file at localPath and returns where it landed. The
	// local file is consumed whether or not the upload succeeds.
	Upload(ctx context.Context, localPath string) (Asset, error)
	Delete(ctx context.Context, asset Asset) error
}
