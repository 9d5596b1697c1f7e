package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/videotube-be/internal/assets/local"
	"github.com/hongminglow/videotube-be/internal/config"
	"github.com/hongminglow/videotube-be/internal/metrics"
	"github.com/hongminglow/videotube-be/internal/registration"
	"github.com/hongminglow/videotube-be/internal/storage/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	store := memory.New(bcrypt.MinCost)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// The asset base URL depends on the test server's address, so routes are
	// attached after it starts.
	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	uploader, err := local.New(filepath.Join(root, "assets"), ts.URL+"/static")
	require.NoError(t, err)
	registrar, err := registration.New(store, m.InstrumentUploader(uploader))
	require.NoError(t, err)

	cfg := config.Config{
		Port:        "0",
		CORSOrigins: []string{"*"},
		Uploads: config.UploadConfig{
			TempDir:     filepath.Join(root, "temp"),
			MaxUploadMB: 1,
		},
	}
	handler = Handler(cfg, Deps{
		Registrar: registrar,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		StaticDir: uploader.Dir(),
	})
	return &testEnv{server: ts, store: store}
}

func (e *testEnv) register(t *testing.T, fields map[string]string, avatar string) (int, map[string]any) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if avatar != "" {
		part, err := w.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write([]byte(avatar))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	resp, err := http.Post(e.server.URL+"/api/v1/users/register", w.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRegisterFlow(t *testing.T) {
	env := newTestEnv(t)
	fields := map[string]string{
		"fullName": "Jane Doe",
		"username": "JaneD",
		"email":    "jane@x.com",
		"password": "secret",
	}

	status, out := env.register(t, fields, "png-bytes")
	require.Equal(t, http.StatusCreated, status, "body: %v", out)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, registration.MsgRegistered, out["message"])

	data := out["data"].(map[string]any)
	assert.Equal(t, "janed", data["username"])
	assert.Equal(t, "", data["coverImage"])
	assert.NotContains(t, data, "password")
	avatarURL := data["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatarURL, env.server.URL+"/static/"))

	resp, err := http.Get(avatarURL)
	require.NoError(t, err)
	served, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", string(served))

	t.Run("same request again conflicts", func(t *testing.T) {
		status, out := env.register(t, fields, "png-bytes")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, registration.MsgEmailTaken, out["message"])
		assert.Equal(t, 1, env.store.Len())
	})

	t.Run("missing avatar", func(t *testing.T) {
		other := map[string]string{"fullName": "A", "username": "a", "email": "a@b.co", "password": "p"}
		status, out := env.register(t, other, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, registration.MsgAvatarRequired, out["message"])
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/metrics")
		require.NoError(t, err)
		text, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Contains(t, string(text), `videotube_registrations_total{outcome="created"} 1`)
		assert.Contains(t, string(text), `videotube_asset_uploads_total{result="success"} 1`)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
