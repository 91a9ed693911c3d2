package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/ollama"
	"github.com/aretw0/espalier/pkg/domain"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream, "client must request non-streaming completions")

		json.NewEncoder(w).Encode(map[string]string{
			"response": "Reply from " + req.Model,
		})
	})

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "llama3:latest"},
				{"name": "codellama:7b"},
			},
		})
	})

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "0.5.0"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Generate(t *testing.T) {
	srv := fakeServer(t)
	client := ollama.New(srv.URL)

	out, err := client.Generate(context.Background(), "a prompt", "llama3")
	require.NoError(t, err)
	assert.Equal(t, "Reply from llama3", out)
}

func TestClient_Generate_DefaultModel(t *testing.T) {
	srv := fakeServer(t)
	client := ollama.New(srv.URL)

	out, err := client.Generate(context.Background(), "a prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "Reply from "+ollama.DefaultModel, out)
}

func TestClient_Generate_ServerDown(t *testing.T) {
	srv := fakeServer(t)
	srv.Close()
	client := ollama.New(srv.URL)

	_, err := client.Generate(context.Background(), "a prompt", "llama3")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestClient_Generate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	client := ollama.New(srv.URL)

	_, err := client.Generate(context.Background(), "a prompt", "missing")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	client := ollama.New(srv.URL, ollama.WithTimeout(20*time.Millisecond))

	_, err := client.Generate(context.Background(), "a prompt", "llama3")
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, domain.ErrModelTimeout) || errors.Is(err, domain.ErrModelUnavailable),
		"timeouts map onto a model sentinel, got %v", err)
}

func TestClient_ListModels(t *testing.T) {
	srv := fakeServer(t)
	client := ollama.New(srv.URL)

	names, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "codellama:7b"}, names)
}

func TestClient_IsAvailable(t *testing.T) {
	srv := fakeServer(t)
	client := ollama.New(srv.URL)
	assert.True(t, client.IsAvailable(context.Background()))

	srv.Close()
	assert.False(t, client.IsAvailable(context.Background()))
}

func TestRecommendModel(t *testing.T) {
	srv := fakeServer(t)
	client := ollama.New(srv.URL)
	ctx := context.Background()

	t.Run("Subject Match Against Installed Tags", func(t *testing.T) {
		got := ollama.RecommendModel(ctx, client, "Software Programming")
		assert.Equal(t, "codellama:7b", got)
	})

	t.Run("Cyber Prefers Llama", func(t *testing.T) {
		got := ollama.RecommendModel(ctx, client, "Cybersecurity")
		assert.Equal(t, "llama3:latest", got)
	})

	t.Run("No Subject Match Falls To First Installed", func(t *testing.T) {
		got := ollama.RecommendModel(ctx, client, "Gardening")
		assert.Equal(t, "llama3:latest", got)
	})

	t.Run("Server Down Returns Preference", func(t *testing.T) {
		down := ollama.New("http://127.0.0.1:1")
		got := ollama.RecommendModel(ctx, down, "Programming")
		assert.Equal(t, "codellama", got)
	})
}
