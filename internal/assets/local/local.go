package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/videotube-be/internal/assets"
)

var _ assets.Uploader = (*Uploader)(nil)

// Uploader copies files into a directory served as static content. It stands
// in for Cloudinary during local development.
type Uploader struct {
	dir     string
	baseURL string
}

// New creates the public directory if needed.
func New(dir, baseURL string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Uploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory assets are written to.
func (u *Uploader) Dir() string { return u.dir }

func (u *Uploader) Upload(ctx context.Context, localPath string) (assets.Asset, error) {
	if localPath == "" {
		return assets.Asset{}, errors.New("local: empty local path")
	}
	defer os.Remove(localPath)
	if err := ctx.Err(); err != nil {
		return assets.Asset{}, err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	if err := copyFile(localPath, filepath.Join(u.dir, name)); err != nil {
		return assets.Asset{}, fmt.Errorf("local upload: %w", err)
	}
	return assets.Asset{URL: u.baseURL + "/" + name, PublicID: name, ResourceType: "image"}, nil
}

func (u *Uploader) Delete(_ context.Context, asset assets.Asset) error {
	if asset.PublicID == "" {
		return nil
	}
	// PublicID is always a bare file name we generated.
	if filepath.Base(asset.PublicID) != asset.PublicID {
		return fmt.Errorf("local delete: invalid id %q", asset.PublicID)
	}
	if err := os.Remove(filepath.Join(u.dir, asset.PublicID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local delete: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
