package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/hongminglow/videotube-be/internal/assets"
	"github.com/hongminglow/videotube-be/internal/config"
)

var _ assets.Uploader = (*Uploader)(nil)

// uploadAPI is the slice of the Cloudinary SDK this package uses.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Uploader stores assets in Cloudinary.
type Uploader struct {
	api    uploadAPI
	folder string
}

// New builds an Uploader from either CLOUDINARY_URL or explicit credentials.
func New(cfg config.CloudinaryConfig) (*Uploader, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if url := strings.TrimSpace(cfg.URL); url != "" {
		cld, err = cloudinary.NewFromURL(url)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Uploader{api: &cld.Upload, folder: cfg.Folder}, nil
}

// Upload sends the file with resource type auto and removes the local copy.
func (u *Uploader) Upload(ctx context.Context, localPath string) (assets.Asset, error) {
	if localPath == "" {
		return assets.Asset{}, errors.New("cloudinary: empty local path")
	}
	defer os.Remove(localPath)

	resp, err := u.api.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       u.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return assets.Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp == nil {
		return assets.Asset{}, assets.ErrNoURL
	}
	if resp.Error.Message != "" {
		return assets.Asset{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}

	url := resp.SecureURL
	if url == "" {
		url = resp.URL
	}
	if url == "" {
		return assets.Asset{}, assets.ErrNoURL
	}
	return assets.Asset{URL: url, PublicID: resp.PublicID, ResourceType: resp.ResourceType}, nil
}

// Delete destroys a previously uploaded asset.
func (u *Uploader) Delete(ctx context.Context, asset assets.Asset) error {
	if asset.PublicID == "" {
		return nil
	}
	resourceType := asset.ResourceType
	if resourceType == "" {
		resourceType = "image"
	}
	resp, err := u.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     asset.PublicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", asset.PublicID, err)
	}
	if resp != nil && resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", asset.PublicID, resp.Error.Message)
	}
	return nil
}
