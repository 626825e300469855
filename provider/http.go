package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// request carries the fields every adapter needs to build a body.
type request struct {
	Model  string
	System string
	Prompt string
}

// adapter captures the per-backend differences: body shape, response shape,
// and auth headers.
type adapter struct {
	buildRequest  func(request) ([]byte, error)
	parseResponse func([]byte) (string, error)
	setHeaders    func(*http.Request, string)
}

type httpProvider struct {
	name     string
	endpoint string
	model    string
	apiKey   string
	remote   bool
	client   *http.Client
	adapter  adapter
}

func newHTTPProvider(name, endpoint, model, apiKey string, remote bool, timeout time.Duration, a adapter) *httpProvider {
	return &httpProvider{
		name:     name,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		remote:   remote,
		client:   &http.Client{Timeout: timeout},
		adapter:  a,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Remote() bool {
	return p.remote
}

func (p *httpProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	body, err := p.adapter.buildRequest(request{
		Model:  p.model,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.adapter.setHeaders(httpReq, p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", p.name, err)
	}

	if resp.StatusCode >= 400 {
		return "", &StatusError{Provider: p.name, Code: resp.StatusCode, Status: resp.Status}
	}

	content, err := p.adapter.parseResponse(respBody)
	if err != nil {
		return "", fmt.Errorf("%s: parse response: %w", p.name, err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	return content, nil
}

// chatCompletionAdapter speaks the OpenAI chat completions dialect, which
// deepseek also implements.
func chatCompletionAdapter() adapter {
	return adapter{
		buildRequest: func(req request) ([]byte, error) {
			return json.Marshal(map[string]any{
				"model": req.Model,
				"messages": []map[string]string{
					{"role": "system", "content": req.System},
					{"role": "user", "content": req.Prompt},
				},
				"temperature": defaultTemperature,
				"max_tokens":  defaultMaxTokens,
			})
		},
		parseResponse: func(body []byte) (string, error) {
			var decoded struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			if err := json.Unmarshal(body, &decoded); err != nil {
				return "", err
			}
			if len(decoded.Choices) == 0 {
				return "", nil
			}
			return decoded.Choices[0].Message.Content, nil
		},
		setHeaders: func(req *http.Request, apiKey string) {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		},
	}
}

func anthropicAdapter() adapter {
	return adapter{
		buildRequest: func(req request) ([]byte, error) {
			return json.Marshal(map[string]any{
				"model":       req.Model,
				"max_tokens":  defaultMaxTokens,
				"temperature": defaultTemperature,
				"system":      req.System,
				"messages": []map[string]any{
					{
						"role": "user",
						"content": []map[string]string{
							{"type": "text", "text": req.Prompt},
						},
					},
				},
			})
		},
		parseResponse: func(body []byte) (string, error) {
			var decoded struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			}
			if err := json.Unmarshal(body, &decoded); err != nil {
				return "", err
			}
			if len(decoded.Content) == 0 {
				return "", nil
			}
			return decoded.Content[0].Text, nil
		},
		setHeaders: func(req *http.Request, apiKey string) {
			req.Header.Set("x-api-key", apiKey)
			req.Header.Set("anthropic-version", "2023-06-01")
		},
	}
}

func ollamaAdapter() adapter {
	return adapter{
		buildRequest: func(req request) ([]byte, error) {
			return json.Marshal(map[string]any{
				"model": req.Model,
				"messages": []map[string]string{
					{"role": "system", "content": req.System},
					{"role": "user", "content": req.Prompt},
				},
				"stream": false,
				"options": map[string]any{
					"temperature": defaultTemperature,
					"num_predict": defaultMaxTokens,
				},
			})
		},
		parseResponse: func(body []byte) (string, error) {
			var decoded struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			}
			if err := json.Unmarshal(body, &decoded); err != nil {
				return "", err
			}
			return decoded.Message.Content, nil
		},
		setHeaders: func(req *http.Request, apiKey string) {},
	}
}
