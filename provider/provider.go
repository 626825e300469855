// Package provider implements the model backends that turn a prompt into a
// commit message.
//
// Each backend speaks its own HTTP dialect but shares one transport; the
// differences live in a small adapter (request body, response shape, auth
// headers). Credentials are resolved at construction so a missing key fails
// before any repository work starts.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	// ErrUnknownProvider indicates the requested backend kind is not supported.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingAPIKey indicates no credential was supplied or found in the
	// environment for a backend that requires one.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrEmptyResponse indicates the backend answered but produced no text.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// StatusError is returned when a backend answers with an HTTP error status.
type StatusError struct {
	Provider string
	Code     int
	Status   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Status)
}

// Generator produces a commit message from a composed prompt.
type Generator interface {
	// Generate sends the prompt and returns the model's text, trimmed.
	Generate(ctx context.Context, prompt, system string) (string, error)
	// Name identifies the backend, e.g. "openai".
	Name() string
	// Remote reports whether requests leave the local machine.
	Remote() bool
}

// Config selects and parameterizes a backend. Zero fields take the backend's
// defaults.
type Config struct {
	// Kind is one of "openai", "deepseek", "anthropic", "ollama".
	Kind string
	// APIKey overrides the backend's environment variable.
	APIKey string
	// Model overrides the backend's default model id.
	Model string
	// BaseURL is the ollama server address, default http://localhost:11434.
	BaseURL string
}

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 200

	defaultTimeout = 60 * time.Second
	// Local models routinely take longer than hosted ones.
	ollamaTimeout = 120 * time.Second

	defaultOllamaURL = "http://localhost:11434"
)

// New builds the backend named by cfg.Kind. Hosted backends fail here with
// ErrMissingAPIKey when neither cfg.APIKey nor their environment variable is
// set.
func New(cfg Config) (Generator, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))

	switch kind {
	case "openai":
		return newHosted(cfg, hostedSpec{
			name:     "openai",
			endpoint: "https://api.openai.com/v1/chat/completions",
			envVar:   "OPENAI_API_KEY",
			model:    "gpt-4o-mini",
			adapter:  chatCompletionAdapter(),
		})
	case "deepseek":
		return newHosted(cfg, hostedSpec{
			name:     "deepseek",
			endpoint: "https://api.deepseek.com/chat/completions",
			envVar:   "DEEPSEEK_API_KEY",
			model:    "deepseek-chat",
			adapter:  chatCompletionAdapter(),
		})
	case "anthropic":
		return newHosted(cfg, hostedSpec{
			name:     "anthropic",
			endpoint: "https://api.anthropic.com/v1/messages",
			envVar:   "ANTHROPIC_API_KEY",
			model:    "claude-3-5-haiku-latest",
			adapter:  anthropicAdapter(),
		})
	case "ollama":
		return newOllama(cfg), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Kind)
}

type hostedSpec struct {
	name     string
	endpoint string
	envVar   string
	model    string
	adapter  adapter
}

func newHosted(cfg Config, spec hostedSpec) (Generator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(spec.envVar)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s or pass --api-key", ErrMissingAPIKey, spec.envVar)
	}

	model := cfg.Model
	if model == "" {
		model = spec.model
	}

	return newHTTPProvider(spec.name, spec.endpoint, model, apiKey, true, defaultTimeout, spec.adapter), nil
}

func newOllama(cfg Config) Generator {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultOllamaURL
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	return newHTTPProvider("ollama", base+"/api/chat", model, "", false, ollamaTimeout, ollamaAdapter())
}
