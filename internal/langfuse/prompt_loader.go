package langfuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blaisecz/bioage-reset/internal/logger"
)

// Prompt sources reported by ResolvePrompt.
const (
	PromptSourceLangfuse = "langfuse"
	PromptSourceCache    = "cache"
	PromptSourceEmbedded = "embedded"
)

// ReportPromptMarkers are the terms a report system prompt must contain
// (case-insensitively): the model is asked for a JSON document in the
// report schema, and a prompt that never says so produces unusable drafts.
var ReportPromptMarkers = []string{"json", "schema"}

var (
	errLangfuseDisabled = errors.New("langfuse integration disabled")
	errNoPromptCache    = errors.New("no local prompt cache configured")

	// ErrPromptContract marks a prompt that lacks a required marker.
	ErrPromptContract = errors.New("prompt does not describe the report JSON contract")
)

// PromptLoaderConfig describes where the report system prompt comes from.
type PromptLoaderConfig struct {
	BaseURL   string
	PublicKey string
	SecretKey string

	PromptName    string
	PromptLabel   string
	PromptVersion int
	SavePath      string

	// Markers overrides ReportPromptMarkers. An empty non-nil slice
	// disables the check.
	Markers []string

	Logger *logger.Logger
}

func (c PromptLoaderConfig) markers() []string {
	if c.Markers != nil {
		return c.Markers
	}
	return ReportPromptMarkers
}

// cachedPrompt is the on-disk form of a fetched prompt.
type cachedPrompt struct {
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	Version   int       `json:"version,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Prompt    string    `json:"prompt"`
}

// LoadPrompt fetches the report prompt from Langfuse and caches it at
// SavePath. When Langfuse is disabled, unreachable or serves a prompt that
// fails the contract check, the cached copy is used instead.
func LoadPrompt(ctx context.Context, cfg PromptLoaderConfig) (prompt string, source string, err error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	if cfg.PromptName != "" {
		fetched, err := fetchReportPrompt(ctx, cfg)
		if err == nil {
			err = checkPromptContract(fetched.Prompt, cfg.markers())
		}
		if err == nil {
			if err := writePromptCache(cfg.SavePath, fetched); err != nil {
				log.Warn("caching report prompt failed", "path", cfg.SavePath, "error", err)
			}
			return fetched.Prompt, PromptSourceLangfuse, nil
		}
		if !errors.Is(err, errLangfuseDisabled) {
			log.Warn("langfuse report prompt rejected", "prompt", cfg.PromptName, "error", err)
		}
	}

	cached, err := readPromptCache(cfg.SavePath, cfg.PromptName)
	if err != nil {
		return "", "", err
	}
	if err := checkPromptContract(cached, cfg.markers()); err != nil {
		return "", "", fmt.Errorf("cached prompt %s: %w", cfg.SavePath, err)
	}
	return cached, PromptSourceCache, nil
}

// ResolvePrompt returns the managed report prompt, or fallback when neither
// Langfuse nor the local cache has a usable one.
func ResolvePrompt(ctx context.Context, cfg PromptLoaderConfig, fallback string) (prompt string, source string) {
	loaded, source, err := LoadPrompt(ctx, cfg)
	if err != nil {
		if !errors.Is(err, errNoPromptCache) && !errors.Is(err, os.ErrNotExist) && cfg.Logger != nil {
			cfg.Logger.Warn("report prompt cache unusable", "path", cfg.SavePath, "error", err)
		}
		return fallback, PromptSourceEmbedded
	}
	return loaded, source
}

func checkPromptContract(prompt string, markers []string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrPromptContract)
	}
	lower := strings.ToLower(prompt)
	var missing []string
	for _, m := range markers {
		if !strings.Contains(lower, strings.ToLower(m)) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrPromptContract, strings.Join(missing, ", "))
	}
	return nil
}

func promptURL(cfg PromptLoaderConfig) (string, error) {
	parsed, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid LANGFUSE_BASE_URL: %w", err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/api/public/v2/prompts/" + url.PathEscape(cfg.PromptName)

	query := parsed.Query()
	switch {
	case cfg.PromptVersion > 0:
		query.Set("version", strconv.Itoa(cfg.PromptVersion))
	case cfg.PromptLabel != "":
		query.Set("label", cfg.PromptLabel)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func fetchReportPrompt(ctx context.Context, cfg PromptLoaderConfig) (*cachedPrompt, error) {
	if cfg.BaseURL == "" || cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil, errLangfuseDisabled
	}
	endpoint, err := promptURL(cfg)
	if err != nil {
		return nil, err
	}

	requestCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create prompt request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(cfg.PublicKey, cfg.SecretKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call Langfuse prompt API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Langfuse prompt API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body struct {
		Name    string          `json:"name"`
		Version int             `json:"version"`
		Type    string          `json:"type"`
		Prompt  json.RawMessage `json:"prompt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode Langfuse prompt response: %w", err)
	}

	text, err := promptText(body.Type, body.Prompt)
	if err != nil {
		return nil, err
	}
	return &cachedPrompt{
		Name:      cfg.PromptName,
		Label:     cfg.PromptLabel,
		Version:   body.Version,
		FetchedAt: time.Now().UTC(),
		Prompt:    text,
	}, nil
}

// promptText turns a text prompt or a chat prompt into one system prompt.
// Chat messages are joined in order under their upper-cased role.
func promptText(kind string, raw json.RawMessage) (string, error) {
	switch kind {
	case "", "text":
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", fmt.Errorf("parse text prompt: %w", err)
		}
		return text, nil
	case "chat":
		var messages []struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content string `json:"content"`
			Name    string `json:"name"`
		}
		if err := json.Unmarshal(raw, &messages); err != nil {
			return "", fmt.Errorf("parse chat prompt: %w", err)
		}
		parts := make([]string, 0, len(messages))
		for _, msg := range messages {
			content := msg.Content
			if msg.Type == "placeholder" {
				content = ""
				if msg.Name != "" {
					content = "{{" + msg.Name + "}}"
				}
			}
			if content == "" {
				continue
			}
			role := msg.Role
			if role == "" {
				role = "message"
			}
			parts = append(parts, strings.ToUpper(role)+": "+content)
		}
		return strings.Join(parts, "\n\n"), nil
	default:
		return "", fmt.Errorf("unsupported prompt type %q", kind)
	}
}

// readPromptCache returns the cached prompt for name. A cache written for a
// different prompt name is ignored; a plain text file is used as is.
func readPromptCache(path, name string) (string, error) {
	if path == "" {
		return "", errNoPromptCache
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt cache: %w", err)
	}

	var cached cachedPrompt
	if err := json.Unmarshal(data, &cached); err != nil || cached.Prompt == "" {
		return string(data), nil
	}
	if name != "" && cached.Name != name {
		return "", fmt.Errorf("prompt cache %s holds %q, not %q", path, cached.Name, name)
	}
	return cached.Prompt, nil
}

func writePromptCache(path string, prompt *cachedPrompt) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
