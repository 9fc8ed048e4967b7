package langfuse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportPrompt = "You are a longevity coach. Respond as strict JSON matching the provided schema."

func promptServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func textPromptBody(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"name": "bioage-report-system", "version": 7, "type": "text", "prompt": text})
	require.NoError(t, err)
	return string(raw)
}

func TestLoadPrompt_FetchesAndCachesTextPrompt(t *testing.T) {
	body := textPromptBody(t, reportPrompt)
	var gotPath, gotLabel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLabel = r.URL.Query().Get("label")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "prompts", "system.json")
	prompt, source, err := LoadPrompt(context.Background(), PromptLoaderConfig{
		BaseURL:     server.URL,
		PublicKey:   "pk",
		SecretKey:   "sk",
		PromptName:  "bioage-report-system",
		PromptLabel: "production",
		SavePath:    cache,
	})
	require.NoError(t, err)
	assert.Equal(t, reportPrompt, prompt)
	assert.Equal(t, PromptSourceLangfuse, source)
	assert.Equal(t, "/api/public/v2/prompts/bioage-report-system", gotPath)
	assert.Equal(t, "production", gotLabel)

	data, err := os.ReadFile(cache)
	require.NoError(t, err)
	var cached cachedPrompt
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, "bioage-report-system", cached.Name)
	assert.Equal(t, "production", cached.Label)
	assert.Equal(t, 7, cached.Version)
	assert.Equal(t, reportPrompt, cached.Prompt)
	assert.False(t, cached.FetchedAt.IsZero())
}

func TestLoadPrompt_FlattensChatPrompt(t *testing.T) {
	server := promptServer(t, `{"type":"chat","prompt":[
		{"role":"system","content":"Answer in JSON per the report schema."},
		{"type":"placeholder","name":"history"}
	]}`)

	prompt, _, err := LoadPrompt(context.Background(), PromptLoaderConfig{
		BaseURL: server.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "SYSTEM: Answer in JSON per the report schema.\n\nMESSAGE: {{history}}", prompt)
}

func TestLoadPrompt_RejectsPromptWithoutContract(t *testing.T) {
	server := promptServer(t, textPromptBody(t, "You are a friendly coach. Write prose."))

	cache := filepath.Join(t.TempDir(), "system.json")
	_, _, err := LoadPrompt(context.Background(), PromptLoaderConfig{
		BaseURL: server.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p", SavePath: cache,
	})
	require.Error(t, err)
	assert.NoFileExists(t, cache, "a rejected prompt must not be cached")

	prompt, _, err := LoadPrompt(context.Background(), PromptLoaderConfig{
		BaseURL: server.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p", Markers: []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a friendly coach. Write prose.", prompt)
}

func TestLoadPrompt_FallsBackToCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "plain text", content: reportPrompt, want: reportPrompt},
		{name: "envelope", content: `{"name":"p","prompt":"Return JSON in the schema."}`, want: "Return JSON in the schema."},
		{name: "other prompt", content: `{"name":"other","prompt":"Return JSON in the schema."}`, wantErr: nil},
		{name: "no contract", content: "cached prompt", wantErr: ErrPromptContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := filepath.Join(t.TempDir(), "system.json")
			require.NoError(t, os.WriteFile(cache, []byte(tt.content), 0o600))

			prompt, source, err := LoadPrompt(context.Background(), PromptLoaderConfig{
				BaseURL: server.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p", SavePath: cache,
			})
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, prompt)
			assert.Equal(t, PromptSourceCache, source)
		})
	}
}

func TestResolvePrompt(t *testing.T) {
	prompt, source := ResolvePrompt(context.Background(), PromptLoaderConfig{PromptName: "p"}, "embedded prompt")
	assert.Equal(t, "embedded prompt", prompt)
	assert.Equal(t, PromptSourceEmbedded, source)

	dir := t.TempDir()
	cache := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(cache, []byte(reportPrompt), 0o600))
	prompt, source = ResolvePrompt(context.Background(), PromptLoaderConfig{PromptName: "p", SavePath: cache}, "embedded prompt")
	assert.Equal(t, reportPrompt, prompt)
	assert.Equal(t, PromptSourceCache, source)

	stale := filepath.Join(dir, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("cached prompt"), 0o600))
	prompt, source = ResolvePrompt(context.Background(), PromptLoaderConfig{PromptName: "p", SavePath: stale}, "embedded prompt")
	assert.Equal(t, "embedded prompt", prompt)
	assert.Equal(t, PromptSourceEmbedded, source)
}
