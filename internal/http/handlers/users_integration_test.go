package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/videotube-be/internal/assets/local"
	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/registration"
	"github.com/hongminglow/videotube-be/internal/storage/postgres"
)

// TestRegisterIntegration exercises the register endpoint against the live database.
func TestRegisterIntegration(t *testing.T) {
	if os.Getenv("RUN_REGISTER_INTEGRATION") != "true" {
		t.Skip("set RUN_REGISTER_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewUserStore(ctx, dbURL, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	uploader, err := local.New(t.TempDir(), "http://assets.test/static")
	if err != nil {
		t.Fatalf("init uploader: %v", err)
	}
	service, err := registration.New(store, uploader)
	if err != nil {
		t.Fatalf("init registration: %v", err)
	}

	router := chi.NewRouter()
	userHandler := NewUserHandler(service, UploadOptions{TempDir: t.TempDir(), MaxBytes: 1 << 20}, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.Route("/api/v1/users", userHandler.Register)

	ts := httptest.NewServer(router)
	defer ts.Close()

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	fields := map[string]string{
		"fullName": "API Test",
		"username": username,
		"email":    username + "@example.com",
		"password": fmt.Sprintf("Pass!%d", time.Now().UnixNano()),
	}

	user := requestRegister(t, ts.URL, fields, http.StatusCreated)
	if user.Username != username || user.Email != fields["email"] {
		t.Fatalf("register mismatch: got %+v", user)
	}
	if !strings.HasPrefix(user.Avatar, "http://assets.test/static/") {
		t.Fatalf("unexpected avatar url %q", user.Avatar)
	}

	requestRegister(t, ts.URL, fields, http.StatusBadRequest)

	t.Logf("created user %s (id=%d) and rejected the duplicate", username, user.ID)
}

type registerResponseBody struct {
	StatusCode int               `json:"statusCode"`
	Data       models.PublicUser `json:"data"`
	Message    string            `json:"message"`
	Success    bool              `json:"success"`
}

func requestRegister(t *testing.T, baseURL string, fields map[string]string, wantStatus int) models.PublicUser {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("create avatar part: %v", err)
	}
	if _, err := part.Write([]byte("avatar")); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/users/register", body)
	if err != nil {
		t.Fatalf("build register request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, wantStatus)
	}

	var out registerResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.Data
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
