package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Aryan1718/SkillLens/internal/model"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	maxOutputTokens = 700

	systemInstruction = "You are a security validation assistant. Output only JSON that matches the schema exactly. " +
		"Do not add new findings. Only validate items provided. " +
		"If uncertain, mark is_true_positive=false and explain why."
)

// OpenAIValidator submits validation requests to the OpenAI Responses API.
// Calls are issued with a bounded timeout and are never retried; every
// transport, parse, or schema failure surfaces as an error.
type OpenAIValidator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIValidator creates a validator transport. baseURL may be empty to
// use the public API endpoint.
func NewOpenAIValidator(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) (*OpenAIValidator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIValidator{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type textFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responsesRequest struct {
	Model           string          `json:"model"`
	Input           []inputMessage  `json:"input"`
	MaxOutputTokens int             `json:"max_output_tokens"`
	Text            json.RawMessage `json:"text"`
	Reasoning       json.RawMessage `json:"reasoning,omitempty"`
}

// Validate implements the Validator interface against the Responses API.
func (v *OpenAIValidator) Validate(ctx context.Context, req Request, profile Profile) (model.ValidatedSecurity, error) {
	userInput, err := json.Marshal(req)
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("marshal validation request: %w", err)
	}

	format, err := json.Marshal(map[string]textFormat{
		"format": {
			Type:   "json_schema",
			Name:   "validated_security_output",
			Strict: true,
			Schema: json.RawMessage(responseSchema),
		},
	})
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("marshal response format: %w", err)
	}

	body := responsesRequest{
		Model: profile.Model,
		Input: []inputMessage{
			{Role: "system", Content: []contentPart{{Type: "text", Text: systemInstruction}}},
			{Role: "user", Content: []contentPart{{Type: "text", Text: string(userInput)}}},
		},
		MaxOutputTokens: maxOutputTokens,
		Text:            format,
	}
	if profile.ReasoningEffort != "" {
		effort, err := json.Marshal(map[string]string{"effort": profile.ReasoningEffort})
		if err != nil {
			return model.ValidatedSecurity{}, fmt.Errorf("marshal reasoning effort: %w", err)
		}
		body.Reasoning = effort
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("marshal responses request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/responses", bytes.NewReader(encoded))
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("build responses request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+v.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("responses call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("read responses body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.ValidatedSecurity{}, fmt.Errorf("responses API returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	payload, err := extractResponseJSON(raw)
	if err != nil {
		return model.ValidatedSecurity{}, err
	}
	if err := ValidateResponsePayload(payload); err != nil {
		return model.ValidatedSecurity{}, err
	}

	var validated model.ValidatedSecurity
	if err := json.Unmarshal(payload, &validated); err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("decode validated security payload: %w", err)
	}
	return validated, nil
}

// extractResponseJSON locates the validator's JSON inside the Responses API
// envelope: either a nested text/JSON content entry or a flat output_text
// field. Anything else is a parse error.
func extractResponseJSON(raw []byte) ([]byte, error) {
	var envelope struct {
		Output []struct {
			Content []struct {
				Type string          `json:"type"`
				Text string          `json:"text"`
				JSON json.RawMessage `json:"json"`
			} `json:"content"`
		} `json:"output"`
		OutputText string `json:"output_text"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse responses envelope: %w", err)
	}

	for _, item := range envelope.Output {
		for _, entry := range item.Content {
			switch entry.Type {
			case "output_text", "text":
				if entry.Text != "" {
					return []byte(entry.Text), nil
				}
			case "output_json":
				if len(entry.JSON) > 0 {
					return entry.JSON, nil
				}
			}
		}
	}
	if envelope.OutputText != "" {
		return []byte(envelope.OutputText), nil
	}
	return nil, fmt.Errorf("responses envelope did not contain parseable JSON output")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
