// Package registration creates user accounts.
//
// Register runs a fixed, fail-fast sequence: field checks, username and email
// pre-checks, the required avatar upload, the optional cover upload, the
// insert, and a read-back that strips secrets. The pre-checks are a fast path
// only. Two concurrent requests can both pass them, so the store's unique
// constraints decide the winner and their violations map to the same
// conflict errors.
//
// Assets uploaded before a failed insert are deleted again. A failed delete
// is joined onto the returned error rather than hidden.
package registration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/videotube-be/internal/apierror"
	"github.com/hongminglow/videotube-be/internal/assets"
	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/models/dto"
	"github.com/hongminglow/videotube-be/internal/storage"
)

// Client-facing messages.
const (
	MsgFieldsRequired = "All fields are required and must be non-empty strings"
	MsgInvalidEmail   = "Invalid email format"
	MsgPasswordLength = "Password must be at most 72 bytes long"
	MsgUsernameTaken  = "Username already exists, please choose another one"
	MsgEmailTaken     = "User already exists with this email, please login"
	MsgAvatarRequired = "Avatar image is required"
	MsgAvatarUpload   = "Failed to upload avatar image"
	MsgCreationFailed = "User creation failed"
	MsgRegistered     = "User registered successfully!"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// Service registers users against a store and an asset uploader.
type Service struct {
	store    storage.UserStore
	uploader assets.Uploader
}

// New requires both collaborators.
func New(store storage.UserStore, uploader assets.Uploader) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if uploader == nil {
		return nil, errors.New("asset uploader is required")
	}
	return &Service{store: store, uploader: uploader}, nil
}

// Register creates the user described by req and returns its public form.
// Every client-correctable failure is an *apierror.Error.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.PublicUser, error) {
	if err := validateFields(req); err != nil {
		return models.PublicUser{}, err
	}

	// The lookup uses the username as submitted while the insert lowercases
	// it; the unique constraint still rejects case-only duplicates on insert.
	if err := s.ensureAbsent(ctx, s.store.FindByUsername, req.Username, MsgUsernameTaken); err != nil {
		return models.PublicUser{}, err
	}
	if err := s.ensureAbsent(ctx, s.store.FindByEmail, req.Email, MsgEmailTaken); err != nil {
		return models.PublicUser{}, err
	}

	avatarFile, ok := req.Files.First(dto.FileAvatar)
	if !ok {
		return models.PublicUser{}, apierror.Validation(MsgAvatarRequired)
	}

	avatar, err := s.uploadRequired(ctx, avatarFile)
	if err != nil {
		return models.PublicUser{}, err
	}
	uploaded := []assets.Asset{avatar}

	cover, hasCover := s.uploadOptional(ctx, req.Files, dto.FileCoverImage)
	if hasCover {
		uploaded = append(uploaded, cover)
	}

	created, err := s.store.CreateUser(ctx, models.NewUser{
		FullName:   req.FullName,
		Username:   strings.ToLower(req.Username),
		Email:      req.Email,
		Password:   req.Password,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
	})
	if err != nil {
		return models.PublicUser{}, s.discard(ctx, uploaded, createError(err))
	}

	public, err := s.store.FindPublicByID(ctx, created.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.PublicUser{}, apierror.Internal(MsgCreationFailed, err)
		}
		return models.PublicUser{}, fmt.Errorf("read back user %d: %w", created.ID, err)
	}
	return public, nil
}

func validateFields(req dto.RegisterRequest) error {
	for _, field := range []string{req.FullName, req.Username, req.Email, req.Password} {
		if strings.TrimSpace(field) == "" {
			return apierror.Validation(MsgFieldsRequired)
		}
	}
	if !emailPattern.MatchString(req.Email) {
		return apierror.Validation(MsgInvalidEmail)
	}
	if len(req.Password) > maxPasswordBytes {
		return apierror.Validation(MsgPasswordLength)
	}
	return nil
}

type lookupFunc func(ctx context.Context, value string) (models.User, error)

func (s *Service) ensureAbsent(ctx context.Context, lookup lookupFunc, value, conflictMsg string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return apierror.Conflict(conflictMsg, nil)
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("uniqueness check: %w", err)
	}
}

// uploadRequired fails the registration when no URL comes back.
func (s *Service) uploadRequired(ctx context.Context, file dto.LocalFile) (assets.Asset, error) {
	asset, err := s.uploader.Upload(ctx, file.Path)
	if err == nil && asset.URL == "" {
		err = assets.ErrNoURL
	}
	if err != nil {
		return assets.Asset{}, apierror.Upload(MsgAvatarUpload, err)
	}
	return asset, nil
}

// uploadOptional treats any failure as the file being absent.
func (s *Service) uploadOptional(ctx context.Context, files dto.Attachments, key string) (assets.Asset, bool) {
	file, ok := files.First(key)
	if !ok {
		return assets.Asset{}, false
	}
	asset, err := s.uploader.Upload(ctx, file.Path)
	if err != nil || asset.URL == "" {
		return assets.Asset{}, false
	}
	return asset, true
}

func createError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		return apierror.Conflict(MsgUsernameTaken, err)
	case errors.Is(err, storage.ErrEmailTaken):
		return apierror.Conflict(MsgEmailTaken, err)
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return apierror.Validation(MsgPasswordLength)
	default:
		return fmt.Errorf("create user: %w", err)
	}
}

// discard deletes assets orphaned by a failed insert.
func (s *Service) discard(ctx context.Context, uploaded []assets.Asset, cause error) error {
	errs := []error{cause}
	for _, asset := range uploaded {
		if err := s.uploader.Delete(context.WithoutCancel(ctx), asset); err != nil {
			errs = append(errs, fmt.Errorf("discard orphaned asset %s: %w", asset.URL, err))
		}
	}
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}
