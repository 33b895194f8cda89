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

	"MatchPredictor/internal/config"
	"MatchPredictor/internal/domain"
	"MatchPredictor/internal/ports"
)

// OracleClient implements ports.PredictionOracle backed by OpenAI-compatible
// chat-completion APIs.
type OracleClient struct {
	endpoint            string
	model               string
	apiKey              string
	systemPrompt        string
	promptPricePerK     float64
	completionPricePerK float64
	httpClient          *http.Client
}

var _ ports.PredictionOracle = (*OracleClient)(nil)

// NewOracleClient builds a client from configuration. Token prices are per
// 1000 tokens and come from config, never from a built-in table.
func NewOracleClient(cfg config.OracleConfig) *OracleClient {
	return &OracleClient{
		endpoint:            cfg.Endpoint,
		model:               cfg.Model,
		apiKey:              cfg.APIKey,
		systemPrompt:        cfg.SystemPrompt,
		promptPricePerK:     cfg.PromptPricePerK,
		completionPricePerK: cfg.CompletionPricePerK,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Predict posts the subject plus context documents as a user message and
// returns the model's answer with token and cost accounting.
func (c *OracleClient) Predict(ctx context.Context, subject string, contextDocs []domain.VersionedDocument) (domain.Prediction, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Prediction{}, fmt.Errorf("oracle client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildUserMessage(subject, contextDocs)},
		},
	})
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("marshal oracle payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("request prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Prediction{}, fmt.Errorf("oracle error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Prediction{}, fmt.Errorf("decode oracle response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return domain.Prediction{}, fmt.Errorf("oracle returned no choices")
	}

	usage := domain.TokenUsage{
		Prompt:     decoded.Usage.PromptTokens,
		Completion: decoded.Usage.CompletionTokens,
		Total:      decoded.Usage.TotalTokens,
	}

	return domain.Prediction{
		Value:      strings.TrimSpace(decoded.Choices[0].Message.Content),
		TokenUsage: usage,
		Cost:       c.cost(usage),
	}, nil
}

func (c *OracleClient) cost(usage domain.TokenUsage) float64 {
	return float64(usage.Prompt)/1000*c.promptPricePerK +
		float64(usage.Completion)/1000*c.completionPricePerK
}

func buildUserMessage(subject string, contextDocs []domain.VersionedDocument) string {
	var sb strings.Builder
	sb.WriteString(subject)
	for _, doc := range contextDocs {
		sb.WriteString("\n\n### ")
		sb.WriteString(doc.Name)
		sb.WriteString("\n")
		sb.WriteString(doc.Content)
	}
	return sb.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You predict final scores of football matches. Answer with the score only, in H:A notation."
	}
	return prompt
}
