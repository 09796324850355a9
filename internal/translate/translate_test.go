package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/slexa/internal/config"
)

func TestPassthrough(t *testing.T) {
	assert.Equal(t, "Warmband gebeizt", Passthrough{}.Translate(context.Background(), "Warmband gebeizt"))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Passthrough{}, New(config.TranslateConfig{}))
	assert.IsType(t, &Client{}, New(config.TranslateConfig{URL: "http://localhost:5000", Timeout: time.Second}))
}

func TestClient_TranslatesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "de", req.Source)
		assert.Equal(t, "en", req.Target)
		assert.Equal(t, "text", req.Format)

		_ = json.NewEncoder(w).Encode(response{TranslatedText: "hot strip " + req.Q})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "de", "en", time.Second)
	ctx := context.Background()

	assert.Equal(t, "hot strip gebeizt", c.Translate(ctx, "gebeizt"))
	assert.Equal(t, "hot strip gebeizt", c.Translate(ctx, "gebeizt"))
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, "  ", c.Translate(ctx, "  "))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
		}},
		{"invalid json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}},
		{"empty translation", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"translatedText":""}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, "de", "en", time.Second)
			assert.Equal(t, "Blech", c.Translate(context.Background(), "Blech"))
		})
	}
}

func TestClient_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "de", "en", 200*time.Millisecond)
	assert.Equal(t, "Blech", c.Translate(context.Background(), "Blech"))
}
