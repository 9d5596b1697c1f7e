package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hongminglow/videotube-be/internal/models/dto"
)

const maxFieldBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// diskError marks failures writing spooled files; they are server faults.
type diskError struct{ err error }

func (e *diskError) Error() string { return e.err.Error() }
func (e *diskError) Unwrap() error { return e.err }

func errServer(err error) error {
	if err == nil {
		return nil
	}
	return &diskError{err: err}
}

// UploadOptions controls how multipart files are spooled to disk.
type UploadOptions struct {
	TempDir  string
	MaxBytes int64
}

type registerFields struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// parseRegisterRequest accepts multipart/form-data (fields plus "avatar" and
// "coverImage" files), JSON, or a urlencoded form. Files are written under
// tempDir; the returned Attachments are populated even when an error is
// returned so the caller can clean up.
func parseRegisterRequest(r *http.Request, tempDir string) (dto.RegisterRequest, error) {
	req := dto.RegisterRequest{Files: dto.Attachments{}}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "multipart/form-data":
		err = readMultipart(r, tempDir, &req)
	case "application/json":
		var fields registerFields
		if err = json.NewDecoder(r.Body).Decode(&fields); err == nil {
			req.FullName, req.Username, req.Email, req.Password = fields.FullName, fields.Username, fields.Email, fields.Password
		}
	default:
		if err = r.ParseForm(); err == nil {
			req.FullName = r.PostForm.Get("fullName")
			req.Username = r.PostForm.Get("username")
			req.Email = r.PostForm.Get("email")
			req.Password = r.PostForm.Get("password")
		}
	}
	return req, malformed(err)
}

// malformed tags decode failures as client errors. Body-size errors keep
// their own type.
func malformed(err error) error {
	var (
		tooLarge *http.MaxBytesError
		disk     *diskError
	)
	if err == nil || errors.As(err, &tooLarge) || errors.As(err, &disk) || errors.Is(err, errMalformedBody) {
		return err
	}
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

func readMultipart(r *http.Request, tempDir string, req *dto.RegisterRequest) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", errServer(err))
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			part.Close()
			if err != nil {
				return err
			}
			if len(value) > maxFieldBytes {
				return fmt.Errorf("%w: field %q exceeds %d bytes", errMalformedBody, name, maxFieldBytes)
			}
			setField(req, name, string(value))
			continue
		}

		// Only the first file per accepted key is kept.
		if _, seen := req.Files.Lookup(name); seen || !acceptedFile(name) {
			_, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				return err
			}
			continue
		}
		file, err := spool(part, tempDir, part.FileName(), part.Header.Get("Content-Type"))
		part.Close()
		if file.Path != "" {
			req.Files.Add(name, file)
		}
		if err != nil {
			return err
		}
	}
}

func setField(req *dto.RegisterRequest, name, value string) {
	switch name {
	case "fullName":
		req.FullName = value
	case "username":
		req.Username = value
	case "email":
		req.Email = value
	case "password":
		req.Password = value
	}
}

func acceptedFile(name string) bool {
	return name == dto.FileAvatar || name == dto.FileCoverImage
}

func spool(src io.Reader, dir, filename, contentType string) (dto.LocalFile, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return dto.LocalFile{}, fmt.Errorf("create temp file: %w", errServer(err))
	}
	file := dto.LocalFile{Path: out.Name(), Filename: filepath.Base(filename), ContentType: contentType}

	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	file.Size = n
	if copyErr != nil {
		return file, copyErr
	}
	return file, errServer(closeErr)
}

func removeTempFiles(files dto.Attachments) {
	for _, path := range files.Paths() {
		_ = os.Remove(path)
	}
}
