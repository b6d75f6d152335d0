package e2b

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSuccess(t *testing.T) {
	var killed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "e2b-test-key", r.Header.Get("X-API-Key"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes":
			var req createSandboxRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "code-interpreter", req.TemplateID)
			json.NewEncoder(w).Encode(sandbox{SandboxID: "sb-1", TemplateID: req.TemplateID, ClientID: "cl-1"})
		case r.Method == http.MethodPost && r.URL.Path == "/files":
			assert.True(t, strings.HasPrefix(r.URL.Query().Get("path"), "/tmp/sandmark-"))
			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/sandboxes/sb-1":
			killed.Store(true)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, "e2b-test-key", "code-interpreter")
	s.uploadURL = func(sandboxID, clientID string) string {
		assert.Equal(t, "sb-1", sandboxID)
		assert.Equal(t, "cl-1", clientID)
		return srv.URL
	}

	sample, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.True(t, sample.Success)
	assert.Greater(t, sample.ProvisionMs, 0.0)
	assert.Greater(t, sample.FileOpMs, 0.0)
	assert.GreaterOrEqual(t, sample.TotalMs, sample.ProvisionMs)
	assert.True(t, killed.Load())
}

func TestSampleCreateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(srv.URL, "bad-key", "base")
	sample, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.False(t, sample.Success)
	assert.Contains(t, sample.Error, "invalid API key")
}

func TestSampleUploadFailureStillKills(t *testing.T) {
	var killed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes":
			json.NewEncoder(w).Encode(sandbox{SandboxID: "sb-2", ClientID: "cl-2"})
		case r.Method == http.MethodDelete && r.URL.Path == "/sandboxes/sb-2":
			killed.Store(true)
		default:
			http.Error(w, "envd unavailable", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, "key", "base")
	s.uploadURL = func(string, string) string { return srv.URL + "/broken" }

	sample, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.False(t, sample.Success)
	assert.Contains(t, sample.Error, "file write")
	assert.True(t, killed.Load())
}

func TestDefaultBaseURL(t *testing.T) {
	s := New("", "key", "base")
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, "https://49983-sb-cl.e2b.dev", s.uploadURL("sb", "cl"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "e2b", New("", "", "").Name())
}
