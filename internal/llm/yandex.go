package llm

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

const yandexDefaultBaseURL = "https://llm.api.cloud.yandex.net"

// YandexProvider implements Provider over the YandexGPT foundation-model
// completion API. The vendor ships no Go SDK, so this speaks the REST
// API directly. YandexGPT has no native structured-output mode: the
// schema is enforced by validating the returned text (code fences
// stripped) after the fact.
type YandexProvider struct {
	httpClient *http.Client
	apiKey     string
	folderID   string
	model      string
	baseURL    string
}

// NewYandexProvider creates a new YandexGPT provider.
func NewYandexProvider(cfg YandexConfig) (*YandexProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("yandex API key is required")
	}
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("yandex folder id is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = yandexDefaultBaseURL
	}

	return &YandexProvider{
		httpClient: &http.Client{},
		apiKey:     cfg.APIKey,
		folderID:   cfg.FolderID,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexRequest struct {
	ModelURI          string `json:"modelUri"`
	CompletionOptions struct {
		Stream      bool    `json:"stream"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"maxTokens"`
	} `json:"completionOptions"`
	Messages []yandexMessage `json:"messages"`
}

type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message yandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
		Usage struct {
			InputTextTokens  json.Number `json:"inputTextTokens"`
			CompletionTokens json.Number `json:"completionTokens"`
			TotalTokens      json.Number `json:"totalTokens"`
		} `json:"usage"`
		ModelVersion string `json:"modelVersion"`
	} `json:"result"`
}

func (p *YandexProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	body := yandexRequest{
		ModelURI: fmt.Sprintf("gpt://%s/%s", p.folderID, p.model),
		Messages: buildYandexMessages(req),
	}
	body.CompletionOptions.Temperature = req.Temperature
	body.CompletionOptions.MaxTokens = req.MaxTokens

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal yandex request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/foundationModels/v1/completion", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build yandex request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Api-Key "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if pe, ok := wrapContextErr(err); ok {
			return nil, pe
		}
		return nil, unknown(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, unknown(err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, mapYandexStatus(httpResp, raw)
	}

	var parsed yandexResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, malformed(raw, fmt.Errorf("decode yandex response: %w", err))
	}
	if len(parsed.Result.Alternatives) == 0 {
		return nil, malformed(raw, fmt.Errorf("no alternatives in yandex response"))
	}

	alt := parsed.Result.Alternatives[0]
	content := json.RawMessage(stripCodeFences(alt.Message.Text))
	if req.Schema != nil {
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  numberToInt(parsed.Result.Usage.InputTextTokens),
			OutputTokens: numberToInt(parsed.Result.Usage.CompletionTokens),
			TotalTokens:  numberToInt(parsed.Result.Usage.TotalTokens),
		},
		Model:      p.model,
		StopReason: mapYandexStopReason(alt.Status),
	}, nil
}

func (p *YandexProvider) ModelID() string {
	return p.model
}

func buildYandexMessages(req Request) []yandexMessage {
	var messages []yandexMessage
	if req.System != "" {
		messages = append(messages, yandexMessage{Role: "system", Text: req.System})
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, yandexMessage{Role: role, Text: m.Content})
	}
	return messages
}

func mapYandexStatus(resp *http.Response, body []byte) error {
	err := fmt.Errorf("yandex API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		var after time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if d, parseErr := time.ParseDuration(v + "s"); parseErr == nil {
				after = d
			}
		}
		return rateLimited(err, after)
	case http.StatusUnauthorized, http.StatusForbidden:
		return authFailed(err)
	default:
		return unknown(err)
	}
}

func mapYandexStopReason(status string) string {
	if status == "ALTERNATIVE_STATUS_TRUNCATED_FINAL" {
		return "max_tokens"
	}
	return "end"
}

// stripCodeFences removes a surrounding ```json fence, which YandexGPT
// adds to JSON answers despite instructions.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func numberToInt(n json.Number) int {
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(v)
}
