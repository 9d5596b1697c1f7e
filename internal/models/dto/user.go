package dto

// Attachment keys accepted by the register endpoint.
const (
	FileAvatar     = "avatar"
	FileCoverImage = "coverImage"
)

// RegisterRequest is the parsed multipart body for POST /api/v1/users/register.
type RegisterRequest struct {
	FullName string
	Username string
	Email    string
	Password string
	Files    Attachments
}

// LocalFile is an uploaded part that has been written to local disk.
type LocalFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// Attachments groups uploaded files by form field name.
type Attachments map[string][]LocalFile

// Lookup returns the files stored under key and whether the key was present
// at all. A present key may still hold an empty list.
func (a Attachments) Lookup(key string) ([]LocalFile, bool) {
	files, ok := a[key]
	return files, ok
}

// First returns the first file under key, if any.
func (a Attachments) First(key string) (LocalFile, bool) {
	files, ok := a.Lookup(key)
	if !ok || len(files) == 0 || files[0].Path == "" {
		return LocalFile{}, false
	}
	return files[0], true
}

// Add appends a file under key.
func (a Attachments) Add(key string, file LocalFile) {
	a[key] = append(a[key], file)
}

// Paths lists every local path across all keys.
func (a Attachments) Paths() []string {
	var out []string
	for _, files := range a {
		for _, f := range files {
			if f.Path != "" {
				out = append(out, f.Path)
			}
		}
	}
	return out
}
